package collection

import "github.com/listenupapp/listenup-tracker/internal/domain"

// Action is an event fed to the reducer: a user intent or the completion
// of asynchronous work.
type Action interface {
	actionName() string
}

// RefreshRequested asks for the tracked list to be fetched again.
type RefreshRequested struct{}

// RefreshCompleted carries the outcome of a fetch. Err is nil on success.
type RefreshCompleted struct {
	Series []domain.Series
	Err    error
}

// SeriesLoaded seeds the list from the local cache.
type SeriesLoaded struct {
	Series []domain.Series
}

// SeriesPressed requests navigation to a series.
type SeriesPressed struct {
	ID int
}

// IncrementPressed advances a series by one unit.
type IncrementPressed struct {
	ID int
}

// IncrementWithRating advances a series by one unit and rates it.
// A nil Rating leaves the rating untouched.
type IncrementWithRating struct {
	ID     int
	Rating *int
}

// IncrementCompleted carries the outcome of a progress update.
type IncrementCompleted struct {
	ID     int
	Series domain.Series
	Err    error
}

// RatingDialogDismissed closes the rating dialog without updating.
type RatingDialogDismissed struct{}

// SortPressed opens the sort dialog.
type SortPressed struct{}

// SortRequested applies a sort option and closes the dialog.
type SortRequested struct {
	Option domain.SortOption
}

// SortDismissed closes the sort dialog without changes.
type SortDismissed struct{}

// FilterPressed opens the filter dialog.
type FilterPressed struct{}

// FilterRequested applies a filter set and closes the dialog.
type FilterRequested struct {
	Options []domain.FilterOption
}

// FilterDismissed closes the filter dialog without changes.
type FilterDismissed struct{}

// SnackbarObserved acknowledges the current error snackbar.
type SnackbarObserved struct{}

// NavigationObserved acknowledges the pending navigation request.
type NavigationObserved struct{}

func (RefreshRequested) actionName() string      { return "refresh_requested" }
func (RefreshCompleted) actionName() string      { return "refresh_completed" }
func (SeriesLoaded) actionName() string          { return "series_loaded" }
func (SeriesPressed) actionName() string         { return "series_pressed" }
func (IncrementPressed) actionName() string      { return "increment_pressed" }
func (IncrementWithRating) actionName() string   { return "increment_with_rating" }
func (IncrementCompleted) actionName() string    { return "increment_completed" }
func (RatingDialogDismissed) actionName() string { return "rating_dialog_dismissed" }
func (SortPressed) actionName() string           { return "sort_pressed" }
func (SortRequested) actionName() string         { return "sort_requested" }
func (SortDismissed) actionName() string         { return "sort_dismissed" }
func (FilterPressed) actionName() string         { return "filter_pressed" }
func (FilterRequested) actionName() string       { return "filter_requested" }
func (FilterDismissed) actionName() string       { return "filter_dismissed" }
func (SnackbarObserved) actionName() string      { return "snackbar_observed" }
func (NavigationObserved) actionName() string    { return "navigation_observed" }

// ActionName returns the wire name of an action, used in logs and by the HTTP layer.
func ActionName(a Action) string {
	return a.actionName()
}

// Effect is a side-effect request produced by the reducer and executed by a Runner.
type Effect interface {
	effectName() string
}

// FetchSeries asks the refresh coordinator to fetch the tracked list.
type FetchSeries struct{}

// IncrementProgress asks the tracker to advance a series.
type IncrementProgress struct {
	ID     int
	Rating *int
}

// PersistSort stores the chosen sort option for future sessions.
type PersistSort struct {
	Option domain.SortOption
}

// PersistFilters stores the chosen filter set for future sessions.
type PersistFilters struct {
	Options []domain.FilterOption
}

func (FetchSeries) effectName() string       { return "fetch_series" }
func (IncrementProgress) effectName() string { return "increment_progress" }
func (PersistSort) effectName() string       { return "persist_sort" }
func (PersistFilters) effectName() string    { return "persist_filters" }
