package storage

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"wedding-rsvp/internal/models"
)

// ErrNotFound is returned when no guest has the requested id.
var ErrNotFound = errors.New("guest not found")

// GuestStore is the durable guest list. Every method either fully applies
// or returns an error; single-row updates are atomic.
type GuestStore interface {
	// FindByName returns every guest whose name contains fragment, ignoring case.
	FindByName(ctx context.Context, fragment string) ([]models.Guest, error)
	// Get returns the guest with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (*models.Guest, error)
	// Insert stores a new guest and sets its ID.
	Insert(ctx context.Context, guest *models.Guest) error
	// Update applies u to the guest with the given id and returns the stored
	// row, or ErrNotFound when the id does not exist.
	Update(ctx context.Context, id int64, u Update) (*models.Guest, error)
	// List returns guests ordered newest response first.
	List(ctx context.Context, filter ListFilter) ([]models.Guest, error)
	Close() error
}

// Update is a partial guest update. Response and RespondedAt are always
// written; the email is kept unless Email is set or ClearEmail is true.
type Update struct {
	Response    models.Response
	RespondedAt *time.Time
	Email       *string
	ClearEmail  bool
}

// apply writes u onto g.
func (u Update) apply(g *models.Guest) {
	g.Response = u.Response
	g.RespondedAt = nil
	if u.RespondedAt != nil {
		at := *u.RespondedAt
		g.RespondedAt = &at
	}
	switch {
	case u.ClearEmail:
		g.Email = nil
	case u.Email != nil:
		g.Email = models.StringPtr(*u.Email)
	}
}

// ListFilter narrows List. A nil Response lists everyone.
type ListFilter struct {
	Response *models.Response
}

func (f ListFilter) matches(g *models.Guest) bool {
	return f.Response == nil || g.Response == *f.Response
}

// sortForListing orders guests newest response first, unresponded guests
// last and ties by id.
func sortForListing(guests []models.Guest) {
	slices.SortStableFunc(guests, func(a, b models.Guest) int {
		switch {
		case a.RespondedAt == nil && b.RespondedAt == nil:
			return cmp.Compare(a.ID, b.ID)
		case a.RespondedAt == nil:
			return 1
		case b.RespondedAt == nil:
			return -1
		}
		if c := b.RespondedAt.Compare(*a.RespondedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// filterByName keeps the guests whose name contains fragment.
func filterByName(guests []models.Guest, fragment string) []models.Guest {
	var result []models.Guest
	for _, g := range guests {
		if models.NameContains(g.Name, fragment) {
			result = append(result, g)
		}
	}
	return result
}
