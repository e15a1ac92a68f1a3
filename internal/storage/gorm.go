package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wedding-rsvp/internal/models"
)

// guestRow is the gorm mapping of the guestlist table.
type guestRow struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Guest       string     `gorm:"not null"`
	Email       *string    `gorm:"size:320"`
	Response    string     `gorm:"size:16;not null;default:'';index"`
	RespondedAt *time.Time `gorm:"index"`
}

func (guestRow) TableName() string { return "guestlist" }

func (r guestRow) toModel() models.Guest {
	g := models.Guest{
		ID:       r.ID,
		Name:     r.Guest,
		Email:    r.Email,
		Response: models.Response(r.Response),
	}
	if r.RespondedAt != nil {
		at := r.RespondedAt.UTC()
		g.RespondedAt = &at
	}
	return g
}

// GormStore keeps the guest list in any gorm dialect. Production uses Postgres.
type GormStore struct {
	db *gorm.DB
}

// OpenPostgres connects to Postgres with the given DSN and migrates the schema.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an open gorm connection and migrates the guestlist table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&guestRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) FindByName(ctx context.Context, fragment string) ([]models.Guest, error) {
	var rows []guestRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("search guests: %w", err)
	}
	return filterByName(toModels(rows), fragment), nil
}

func (s *GormStore) Get(ctx context.Context, id int64) (*models.Guest, error) {
	var row guestRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get guest %d: %w", id, err)
	}
	g := row.toModel()
	return &g, nil
}

func (s *GormStore) Insert(ctx context.Context, guest *models.Guest) error {
	row := guestRow{
		Guest:       guest.Name,
		Email:       guest.Email,
		Response:    string(guest.Response),
		RespondedAt: utc(guest.RespondedAt),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert guest: %w", err)
	}
	guest.ID = row.ID
	return nil
}

func (s *GormStore) Update(ctx context.Context, id int64, u Update) (*models.Guest, error) {
	values := map[string]interface{}{
		"response":     string(u.Response),
		"responded_at": nil,
	}
	if u.RespondedAt != nil {
		values["responded_at"] = *utc(u.RespondedAt)
	}
	switch {
	case u.ClearEmail:
		values["email"] = nil
	case u.Email != nil:
		values["email"] = *u.Email
	}

	var row guestRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&guestRow{}).Where("id = ?", id).Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&row, "id = ?", id).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update guest %d: %w", id, err)
	}

	g := row.toModel()
	return &g, nil
}

func (s *GormStore) List(ctx context.Context, filter ListFilter) ([]models.Guest, error) {
	q := s.db.WithContext(ctx).Model(&guestRow{})
	if filter.Response != nil {
		q = q.Where("response = ?", string(*filter.Response))
	}

	var rows []guestRow
	if err := q.Order("responded_at IS NULL").Order("responded_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	return toModels(rows), nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// utc normalizes timestamps so every dialect stores the same instant the same way.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	at := t.UTC()
	return &at
}

func toModels(rows []guestRow) []models.Guest {
	guests := make([]models.Guest, len(rows))
	for i, r := range rows {
		guests[i] = r.toModel()
	}
	return guests
}
