package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wedding-rsvp/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const selectGuest = `SELECT id, guest, email, response, responded_at FROM guestlist`

// SQLiteStore keeps the guest list in a SQLite database.
// AUTOINCREMENT guarantees ids are never reused.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
//
// The database runs in WAL mode with a 5-second busy timeout and a single
// open connection, since SQLite allows only one writer at a time.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FindByName scans the whole list and applies models.NameContains, so that
// matching does not depend on SQLite's ASCII-only LIKE folding.
func (s *SQLiteStore) FindByName(ctx context.Context, fragment string) ([]models.Guest, error) {
	guests, err := s.query(ctx, selectGuest+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("search guests: %w", err)
	}
	return filterByName(guests, fragment), nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*models.Guest, error) {
	row := s.db.QueryRowContext(ctx, selectGuest+` WHERE id = ?`, id)
	g, err := scanGuest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get guest %d: %w", id, err)
	}
	return g, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, guest *models.Guest) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO guestlist (guest, email, response, responded_at) VALUES (?, ?, ?, ?)`,
		guest.Name, nullString(guest.Email), string(guest.Response), nullTime(guest.RespondedAt),
	)
	if err != nil {
		return fmt.Errorf("insert guest: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert guest: %w", err)
	}
	guest.ID = id
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, u Update) (*models.Guest, error) {
	var (
		res sql.Result
		err error
	)
	switch {
	case u.ClearEmail:
		res, err = s.db.ExecContext(ctx,
			`UPDATE guestlist SET response = ?, responded_at = ?, email = NULL WHERE id = ?`,
			string(u.Response), nullTime(u.RespondedAt), id)
	case u.Email != nil:
		res, err = s.db.ExecContext(ctx,
			`UPDATE guestlist SET response = ?, responded_at = ?, email = ? WHERE id = ?`,
			string(u.Response), nullTime(u.RespondedAt), *u.Email, id)
	default:
		res, err = s.db.ExecContext(ctx,
			`UPDATE guestlist SET response = ?, responded_at = ? WHERE id = ?`,
			string(u.Response), nullTime(u.RespondedAt), id)
	}
	if err != nil {
		return nil, fmt.Errorf("update guest %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update guest %d: %w", id, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]models.Guest, error) {
	query := selectGuest
	var args []any
	if filter.Response != nil {
		query += ` WHERE response = ?`
		args = append(args, string(*filter.Response))
	}
	query += ` ORDER BY responded_at IS NULL, responded_at DESC, id ASC`

	guests, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	return guests, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]models.Guest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	guests := make([]models.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, *g)
	}
	return guests, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGuest(row scanner) (*models.Guest, error) {
	var (
		g           models.Guest
		email       sql.NullString
		response    string
		respondedAt sql.NullInt64
	)
	if err := row.Scan(&g.ID, &g.Name, &email, &response, &respondedAt); err != nil {
		return nil, err
	}
	g.Response = models.Response(response)
	if email.Valid {
		g.Email = models.StringPtr(email.String)
	}
	if respondedAt.Valid {
		at := time.Unix(0, respondedAt.Int64).UTC()
		g.RespondedAt = &at
	}
	return &g, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullTime stores timestamps as unix nanoseconds so ORDER BY is chronological.
func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}
