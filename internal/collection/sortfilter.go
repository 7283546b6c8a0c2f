package collection

import (
	"cmp"
	"slices"

	"golang.org/x/text/cases"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

// Apply returns the visible list: series whose status passes filters, ordered
// by opt. The input is never modified and the result is never nil.
//
// Every ordering except SortDefault breaks ties by user id so repeated
// application yields the same sequence. SortDefault keeps remote order.
func Apply(all []domain.Series, opt domain.SortOption, filters []domain.FilterOption) []domain.Series {
	out := make([]domain.Series, 0, len(all))
	for _, s := range all {
		if domain.Includes(filters, s.Status) {
			out = append(out, s)
		}
	}

	switch opt {
	case domain.SortTitle:
		sortByTitle(out)
	case domain.SortStartDate:
		slices.SortStableFunc(out, func(a, b domain.Series) int {
			return tieBreak(compareDates(a.StartDate, b.StartDate), a, b)
		})
	case domain.SortEndDate:
		slices.SortStableFunc(out, func(a, b domain.Series) int {
			return tieBreak(compareDates(a.EndDate, b.EndDate), a, b)
		})
	case domain.SortRating:
		slices.SortStableFunc(out, func(a, b domain.Series) int {
			return tieBreak(compareRatings(a.Rating, b.Rating), a, b)
		})
	}
	return out
}

// sortByTitle orders case-insensitively. Folded keys are computed once per
// element since a Caser is not cheap and not safe for concurrent use.
func sortByTitle(list []domain.Series) {
	fold := cases.Fold()
	type keyed struct {
		key    string
		series domain.Series
	}
	tmp := make([]keyed, len(list))
	for i, s := range list {
		tmp[i] = keyed{key: fold.String(s.Title), series: s}
	}
	slices.SortStableFunc(tmp, func(a, b keyed) int {
		return tieBreak(cmp.Compare(a.key, b.key), a.series, b.series)
	})
	for i := range tmp {
		list[i] = tmp[i].series
	}
}

// compareDates orders ascending with unset dates last. Dates are ISO-8601
// so lexical order is chronological.
func compareDates(a, b domain.Date) int {
	switch {
	case a.IsSet() && !b.IsSet():
		return -1
	case !a.IsSet() && b.IsSet():
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// compareRatings orders highest first with unrated series last.
func compareRatings(a, b int) int {
	switch {
	case a > 0 && b == 0:
		return -1
	case a == 0 && b > 0:
		return 1
	default:
		return cmp.Compare(b, a)
	}
}

func tieBreak(c int, a, b domain.Series) int {
	if c != 0 {
		return c
	}
	return cmp.Compare(a.UserID, b.UserID)
}
