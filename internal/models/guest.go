package models

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Guest represents one invited party member on the guest list
type Guest struct {
	ID          int64      `json:"id"`
	Name        string     `json:"guest"`
	Email       *string    `json:"email"`
	Response    Response   `json:"response"`
	RespondedAt *time.Time `json:"responded_at"`
}

// Response represents the attendance decision recorded for a guest
type Response string

const (
	ResponseUnset    Response = ""
	ResponseAccepted Response = "accept"
	ResponseDeclined Response = "decline"
)

// pendingAlias is how the unset response is spelled in filters and on the console.
const pendingAlias = "pending"

// ParseDecision parses a terminal response. Only accept and decline are valid.
func ParseDecision(s string) (Response, error) {
	switch Response(strings.ToLower(strings.TrimSpace(s))) {
	case ResponseAccepted:
		return ResponseAccepted, nil
	case ResponseDeclined:
		return ResponseDeclined, nil
	}
	return ResponseUnset, fmt.Errorf("invalid response %q: must be %q or %q", s, ResponseAccepted, ResponseDeclined)
}

// ParseFilter parses a list filter value. "pending" selects unresponded guests.
func ParseFilter(s string) (Response, error) {
	if strings.EqualFold(strings.TrimSpace(s), pendingAlias) {
		return ResponseUnset, nil
	}
	return ParseDecision(s)
}

// IsDecision reports whether r is accept or decline.
func (r Response) IsDecision() bool {
	return r == ResponseAccepted || r == ResponseDeclined
}

// Label returns a human readable form of the response.
func (r Response) Label() string {
	switch r {
	case ResponseAccepted:
		return "accepted"
	case ResponseDeclined:
		return "declined"
	}
	return pendingAlias
}

// HasResponded reports whether the guest has a recorded decision.
func (g *Guest) HasResponded() bool {
	return g.Response != ResponseUnset
}

// EmailAddress returns the email or an empty string when none is on record.
func (g *Guest) EmailAddress() string {
	if g.Email == nil {
		return ""
	}
	return *g.Email
}

// Clone returns a deep copy so callers never share pointers with a store.
func (g Guest) Clone() Guest {
	if g.Email != nil {
		email := *g.Email
		g.Email = &email
	}
	if g.RespondedAt != nil {
		at := *g.RespondedAt
		g.RespondedAt = &at
	}
	return g
}

// NameContains reports whether name contains fragment, ignoring case.
// This is the only name matching rule: search candidates and duplicate
// detection both use it.
func NameContains(name, fragment string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(name), fold.String(fragment))
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}
