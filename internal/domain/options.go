package domain

// SortOption selects how the tracked list is ordered.
type SortOption string

const (
	SortDefault   SortOption = "default"
	SortTitle     SortOption = "title"
	SortStartDate SortOption = "start_date"
	SortEndDate   SortOption = "end_date"
	SortRating    SortOption = "rating"
)

// SortOptions lists every option in the order the sort dialog shows them.
var SortOptions = []SortOption{
	SortDefault,
	SortTitle,
	SortStartDate,
	SortEndDate,
	SortRating,
}

// Valid reports whether o is a known sort option.
func (o SortOption) Valid() bool {
	switch o {
	case SortDefault, SortTitle, SortStartDate, SortEndDate, SortRating:
		return true
	default:
		return false
	}
}

// FilterOption states whether series in a status category are visible.
type FilterOption struct {
	Status   UserSeriesStatus `json:"status"`
	Included bool             `json:"included"`
}

// DefaultFilterOptions returns every filterable category included.
func DefaultFilterOptions() []FilterOption {
	opts := make([]FilterOption, len(FilterableStatuses))
	for i, status := range FilterableStatuses {
		opts[i] = FilterOption{Status: status, Included: true}
	}
	return opts
}

// Includes reports whether a series with the given status passes the filter set.
// Categories absent from opts are included.
func Includes(opts []FilterOption, status UserSeriesStatus) bool {
	for _, opt := range opts {
		if opt.Status == status {
			return opt.Included
		}
	}
	return true
}

// NormalizeFilterOptions returns one entry per filterable category in display
// order, taking values from opts and defaulting missing categories to included.
func NormalizeFilterOptions(opts []FilterOption) []FilterOption {
	out := make([]FilterOption, len(FilterableStatuses))
	for i, status := range FilterableStatuses {
		out[i] = FilterOption{Status: status, Included: Includes(opts, status)}
	}
	return out
}
