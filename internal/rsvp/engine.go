package rsvp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/notify"
	"wedding-rsvp/internal/storage"
)

// Config holds engine settings
type Config struct {
	// Location is the zone responses are stamped in.
	Location *time.Location
	// Now overrides the wall clock in tests.
	Now func() time.Time
}

// Engine applies the guest-list rules on top of a GuestStore.
//
// The engine holds no locks: every operation is a short sequence of store
// calls and concurrent responses for the same guest resolve last-write-wins.
type Engine struct {
	store    storage.GuestStore
	notifier notify.Notifier
	log      zerolog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewEngine creates a new response engine
func NewEngine(store storage.GuestStore, notifier notify.Notifier, log zerolog.Logger, cfg *Config) *Engine {
	e := &Engine{
		store:    store,
		notifier: notifier,
		log:      log,
		loc:      time.UTC,
		now:      time.Now,
	}
	if cfg != nil {
		if cfg.Location != nil {
			e.loc = cfg.Location
		}
		if cfg.Now != nil {
			e.now = cfg.Now
		}
	}
	return e
}

// RespondRequest is a guest's accept or decline.
type RespondRequest struct {
	GuestID  int64
	Email    string
	Response models.Response
}

// Search returns the unresponded guests whose name contains fragment.
// No candidates and only-responded candidates are reported as distinct outcomes.
func (e *Engine) Search(ctx context.Context, fragment string) (*models.SearchResult, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, invalid("Guest name is required to search.")
	}

	candidates, err := e.store.FindByName(ctx, fragment)
	if err != nil {
		return nil, storeFailure("An error occurred while searching.", 0, err)
	}
	if len(candidates) == 0 {
		return &models.SearchResult{Outcome: models.SearchNoMatch}, nil
	}

	var open []models.Guest
	for _, g := range candidates {
		if !g.HasResponded() {
			open = append(open, e.localize(g))
		}
	}
	if len(open) == 0 {
		return &models.SearchResult{Outcome: models.SearchAlreadyResponded}, nil
	}
	return &models.SearchResult{Outcome: models.SearchFound, Guests: open}, nil
}

// Respond records an accept or decline and then sends the confirmation.
//
// The email always replaces the one on record. If the confirmation fails the
// updated guest is returned together with a NOTIFY error: the response stays
// recorded.
func (e *Engine) Respond(ctx context.Context, req RespondRequest) (*models.Guest, error) {
	if req.GuestID <= 0 {
		return nil, invalid("Guest ID is required to update the response.")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, invalid("Email is required and cannot be empty.")
	}
	if !req.Response.IsDecision() {
		return nil, invalid("Response must be accept or decline.")
	}

	now := e.now().In(e.loc)
	guest, err := e.store.Update(ctx, req.GuestID, storage.Update{
		Response:    req.Response,
		RespondedAt: &now,
		Email:       &email,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound(req.GuestID)
	}
	if err != nil {
		return nil, storeFailure("An error occurred while updating response.", req.GuestID, err)
	}

	updated := e.localize(*guest)
	e.log.Info().
		Int64("guest_id", updated.ID).
		Str("guest", updated.Name).
		Str("response", string(updated.Response)).
		Msg("Guest responded")

	conf := notify.Confirmation{Name: updated.Name, Email: email, Response: req.Response}
	if err := e.notifier.Notify(ctx, conf); err != nil {
		e.log.Error().
			Err(err).
			Int64("guest_id", updated.ID).
			Str("email", email).
			Str("response", string(req.Response)).
			Msg("Confirmation email failed")
		return &updated, &Error{
			Code:    CodeNotify,
			Message: "Failed to send email. Check server logs.",
			GuestID: updated.ID,
			Err:     err,
		}
	}

	return &updated, nil
}

// AddPlusOne adds an auto-accepted companion who inherits a copy of the
// primary guest's current email.
func (e *Engine) AddPlusOne(ctx context.Context, primaryID int64, name string) (*models.Guest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("Guest name is required.")
	}
	if primaryID <= 0 {
		return nil, invalid("Main guest ID is required.")
	}

	primary, err := e.get(ctx, primaryID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(primary.EmailAddress()) == "" {
		return nil, &Error{Code: CodeInvalid, Message: "Main guest has no email on record.", GuestID: primaryID}
	}

	if err := e.ensureUnique(ctx, name); err != nil {
		return nil, err
	}

	now := e.now().In(e.loc)
	guest := models.Guest{
		Name:        name,
		Email:       models.StringPtr(primary.EmailAddress()),
		Response:    models.ResponseAccepted,
		RespondedAt: &now,
	}
	if err := e.store.Insert(ctx, &guest); err != nil {
		return nil, storeFailure("An error occurred while adding the plus-one guest.", primaryID, err)
	}

	e.log.Info().
		Int64("guest_id", guest.ID).
		Int64("primary_id", primaryID).
		Str("guest", guest.Name).
		Msg("Plus-one added")

	added := e.localize(guest)
	return &added, nil
}

// ListResponses returns guests newest response first, optionally filtered.
func (e *Engine) ListResponses(ctx context.Context, filter storage.ListFilter) ([]models.Guest, error) {
	guests, err := e.store.List(ctx, filter)
	if err != nil {
		return nil, storeFailure("Internal Server Error", 0, err)
	}
	for i := range guests {
		guests[i] = e.localize(guests[i])
	}
	return guests, nil
}

// EditResponse lets an admin set accept or decline. The email is left alone
// and no confirmation is sent.
func (e *Engine) EditResponse(ctx context.Context, id int64, response models.Response) (*models.Guest, error) {
	if !response.IsDecision() {
		return nil, invalid("Response must be accept or decline.")
	}
	if id <= 0 {
		return nil, invalid("Guest ID is required.")
	}

	now := e.now().In(e.loc)
	guest, err := e.update(ctx, id, storage.Update{Response: response, RespondedAt: &now})
	if err != nil {
		return nil, err
	}

	e.log.Info().Int64("guest_id", id).Str("response", string(response)).Msg("Response edited")
	return guest, nil
}

// ResetResponse clears a guest's email and response so they can respond
// again. The record itself is kept.
func (e *Engine) ResetResponse(ctx context.Context, id int64) (*models.Guest, error) {
	if id <= 0 {
		return nil, invalid("Guest ID is required.")
	}

	guest, err := e.update(ctx, id, storage.Update{Response: models.ResponseUnset, ClearEmail: true})
	if err != nil {
		return nil, err
	}

	e.log.Info().Int64("guest_id", id).Msg("Response reset")
	return guest, nil
}

// AddGuest inserts a new unresponded guest.
func (e *Engine) AddGuest(ctx context.Context, name, email string) (*models.Guest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("Guest name is required.")
	}

	if err := e.ensureUnique(ctx, name); err != nil {
		return nil, err
	}

	guest := models.Guest{Name: name}
	if email = strings.TrimSpace(email); email != "" {
		guest.Email = models.StringPtr(email)
	}
	if err := e.store.Insert(ctx, &guest); err != nil {
		return nil, storeFailure("An error occurred while adding the guest.", 0, err)
	}

	e.log.Info().Int64("guest_id", guest.ID).Str("guest", guest.Name).Msg("Guest added")
	return &guest, nil
}

// ensureUnique rejects a name contained in any existing guest name.
// "Ann" conflicts with "Anna Smith". The check and the following insert are
// not atomic.
func (e *Engine) ensureUnique(ctx context.Context, name string) error {
	existing, err := e.store.FindByName(ctx, name)
	if err != nil {
		return storeFailure("An error occurred while checking the guest list.", 0, err)
	}
	if len(existing) > 0 {
		return conflict(name)
	}
	return nil
}

func (e *Engine) get(ctx context.Context, id int64) (*models.Guest, error) {
	guest, err := e.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeFailure("An error occurred while loading the guest.", id, err)
	}
	return guest, nil
}

func (e *Engine) update(ctx context.Context, id int64, u storage.Update) (*models.Guest, error) {
	guest, err := e.store.Update(ctx, id, u)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeFailure("An error occurred while updating response.", id, err)
	}
	updated := e.localize(*guest)
	return &updated, nil
}

// localize presents respondedAt in the event's zone.
func (e *Engine) localize(g models.Guest) models.Guest {
	if g.RespondedAt != nil {
		at := g.RespondedAt.In(e.loc)
		g.RespondedAt = &at
	}
	return g
}
