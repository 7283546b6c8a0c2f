// Package collection owns the view-state of the user's tracked series list:
// a serialized state store, a pure reducer, the sort/filter engine and the
// refresh coordinator that talks to the remote tracker.
package collection

import (
	"slices"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

// SnackbarKind identifies the message a snackbar shows.
type SnackbarKind string

const (
	// SnackbarGenericError is raised when a refresh fails.
	SnackbarGenericError SnackbarKind = "generic_error"
	// SnackbarIncrementFailed is raised when a progress update fails.
	// FormatText carries the series title.
	SnackbarIncrementFailed SnackbarKind = "increment_failed"
)

// Snackbar is a transient error message awaiting acknowledgment.
type Snackbar struct {
	Kind       SnackbarKind `json:"kind"`
	Message    string       `json:"message"`
	FormatText string       `json:"format_text,omitempty"`
}

// RatingDialog asks the user for a rating before the final increment of a series.
type RatingDialog struct {
	Series domain.Series `json:"series"`
}

// SortDialog is the open sort picker.
type SortDialog struct {
	Current domain.SortOption   `json:"current"`
	Options []domain.SortOption `json:"options"`
}

// FilterDialog is the open filter picker.
type FilterDialog struct {
	Options []domain.FilterOption `json:"options"`
}

// SeriesDetails is a pending request to navigate to a series.
// Seq distinguishes repeated presses of the same series.
type SeriesDetails struct {
	SeriesID int    `json:"series_id"`
	Title    string `json:"title"`
	Seq      uint64 `json:"seq"`
}

// View is the top-level presentation mode derived from the state.
type View string

const (
	ViewList  View = "list"
	ViewEmpty View = "empty"
)

// State is the UI state of one collection session. It is a value: the
// reducer returns modified copies and never mutates slices it was given.
type State struct {
	Models        []domain.Series `json:"models"`
	IsRefreshing  bool            `json:"is_refreshing"`
	RatingDialog  *RatingDialog   `json:"rating_dialog,omitempty"`
	SortDialog    *SortDialog     `json:"sort_dialog,omitempty"`
	FilterDialog  *FilterDialog   `json:"filter_dialog,omitempty"`
	ErrorSnackbar *Snackbar       `json:"error_snackbar,omitempty"`
	SeriesDetails *SeriesDetails  `json:"series_details,omitempty"`

	Sort             domain.SortOption     `json:"sort"`
	Filters          []domain.FilterOption `json:"filters"`
	RateOnCompletion bool                  `json:"rate_on_completion"`

	// Revision is stamped by the store and grows by one per reduced action.
	Revision uint64 `json:"revision"`

	// all is the full tracked set in remote order; Models is derived from it.
	all    []domain.Series
	navSeq uint64
}

// NewState returns the initial state of a session: an empty list with the
// persisted sort and filter choices applied.
func NewState(sort domain.SortOption, filters []domain.FilterOption, rateOnCompletion bool) State {
	if !sort.Valid() {
		sort = domain.SortDefault
	}
	return State{
		Models:           []domain.Series{},
		Sort:             sort,
		Filters:          domain.NormalizeFilterOptions(filters),
		RateOnCompletion: rateOnCompletion,
		all:              []domain.Series{},
	}
}

// All returns a copy of the full tracked set, ignoring the active filter.
func (s State) All() []domain.Series {
	return slices.Clone(s.all)
}

// View reports whether the list or the empty view should be shown.
func (s State) View() View {
	if len(s.Models) == 0 {
		return ViewEmpty
	}
	return ViewList
}

// Find returns the tracked series with the given user id.
func (s State) Find(userID int) (domain.Series, bool) {
	if i := indexOf(s.all, userID); i >= 0 {
		return s.all[i], true
	}
	return domain.Series{}, false
}

func indexOf(list []domain.Series, userID int) int {
	return slices.IndexFunc(list, func(s domain.Series) bool { return s.UserID == userID })
}
