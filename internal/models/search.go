package models

// SearchOutcome distinguishes the three results of a guest search
type SearchOutcome string

const (
	// SearchNoMatch means no guest name contains the fragment.
	SearchNoMatch SearchOutcome = "no_match"
	// SearchAlreadyResponded means every matching guest already responded.
	SearchAlreadyResponded SearchOutcome = "already_responded"
	// SearchFound means at least one matching guest has not responded.
	SearchFound SearchOutcome = "found"
)

// SearchResult is the outcome of a search together with the selectable guests.
// Guests is only populated for SearchFound.
type SearchResult struct {
	Outcome SearchOutcome `json:"status"`
	Guests  []Guest       `json:"guests,omitempty"`
}

// Message returns the text shown to a guest for the outcome.
func (r *SearchResult) Message() string {
	switch r.Outcome {
	case SearchNoMatch:
		return "No matching guest found."
	case SearchAlreadyResponded:
		return "All matching guests have already responded."
	}
	return "Select your name to respond."
}
