package collection

import (
	"slices"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

const (
	msgRefreshFailed   = "Unable to refresh your series"
	msgIncrementFailed = "Unable to update %s"
)

// Reduce computes the next state for an action and the effects that must
// run as a consequence. It is pure: no I/O, no clocks, no randomness, and
// the input state is left untouched.
func Reduce(s State, a Action) (State, []Effect) {
	switch a := a.(type) {
	case RefreshRequested:
		if s.IsRefreshing {
			return s, nil
		}
		s.IsRefreshing = true
		return s, []Effect{FetchSeries{}}

	case RefreshCompleted:
		s.IsRefreshing = false
		if a.Err != nil {
			s.ErrorSnackbar = &Snackbar{Kind: SnackbarGenericError, Message: msgRefreshFailed}
			return s, nil
		}
		return s.withAll(mergeUpdating(s.all, a.Series)), nil

	case SeriesLoaded:
		return s.withAll(mergeUpdating(s.all, a.Series)), nil

	case SeriesPressed:
		series, ok := s.Find(a.ID)
		if !ok {
			return s, nil
		}
		s.navSeq++
		s.SeriesDetails = &SeriesDetails{SeriesID: series.UserID, Title: series.Title, Seq: s.navSeq}
		return s, nil

	case IncrementPressed:
		series, ok := s.Find(a.ID)
		if !ok || series.IsUpdating || !series.ShowPlusOne() {
			return s, nil
		}
		if s.RateOnCompletion && series.CompletesOnIncrement() {
			s.RatingDialog = &RatingDialog{Series: series}
			return s, nil
		}
		return s.markUpdating(a.ID), []Effect{IncrementProgress{ID: a.ID}}

	case IncrementWithRating:
		s.RatingDialog = nil
		series, ok := s.Find(a.ID)
		if !ok || series.IsUpdating || !series.ShowPlusOne() {
			return s, nil
		}
		return s.markUpdating(a.ID), []Effect{IncrementProgress{ID: a.ID, Rating: a.Rating}}

	case IncrementCompleted:
		i := indexOf(s.all, a.ID)
		if i < 0 {
			return s, nil
		}
		all := slices.Clone(s.all)
		if a.Err != nil {
			all[i].IsUpdating = false
			s.ErrorSnackbar = &Snackbar{
				Kind:       SnackbarIncrementFailed,
				Message:    msgIncrementFailed,
				FormatText: all[i].Title,
			}
			return s.withAll(all), nil
		}
		updated := a.Series
		updated.UserID = a.ID
		updated.IsUpdating = false
		all[i] = updated
		return s.withAll(all), nil

	case RatingDialogDismissed:
		s.RatingDialog = nil
		return s, nil

	case SortPressed:
		s.SortDialog = &SortDialog{Current: s.Sort, Options: slices.Clone(domain.SortOptions)}
		return s, nil

	case SortRequested:
		s.SortDialog = nil
		if !a.Option.Valid() {
			return s, nil
		}
		s.Sort = a.Option
		s.Models = Apply(s.all, s.Sort, s.Filters)
		return s, []Effect{PersistSort{Option: a.Option}}

	case SortDismissed:
		s.SortDialog = nil
		return s, nil

	case FilterPressed:
		s.FilterDialog = &FilterDialog{Options: slices.Clone(s.Filters)}
		return s, nil

	case FilterRequested:
		s.FilterDialog = nil
		s.Filters = domain.NormalizeFilterOptions(a.Options)
		s.Models = Apply(s.all, s.Sort, s.Filters)
		return s, []Effect{PersistFilters{Options: slices.Clone(s.Filters)}}

	case FilterDismissed:
		s.FilterDialog = nil
		return s, nil

	case SnackbarObserved:
		s.ErrorSnackbar = nil
		return s, nil

	case NavigationObserved:
		s.SeriesDetails = nil
		return s, nil
	}

	return s, nil
}

// withAll replaces the tracked set and recomputes the visible list.
func (s State) withAll(all []domain.Series) State {
	s.all = all
	s.Models = Apply(all, s.Sort, s.Filters)
	return s
}

func (s State) markUpdating(userID int) State {
	all := slices.Clone(s.all)
	if i := indexOf(all, userID); i >= 0 {
		all[i].IsUpdating = true
	}
	return s.withAll(all)
}

// mergeUpdating copies incoming, keeping the in-flight marker of series that
// still have an increment pending.
func mergeUpdating(current, incoming []domain.Series) []domain.Series {
	out := make([]domain.Series, len(incoming))
	copy(out, incoming)
	for i := range out {
		out[i].IsUpdating = false
		if j := indexOf(current, out[i].UserID); j >= 0 && current[j].IsUpdating {
			out[i].IsUpdating = true
		}
	}
	return out
}
