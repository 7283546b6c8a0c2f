// Package domain contains the core types of the tracker client.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Service identifies the remote tracking service a series is tracked on.
type Service string

const (
	// ServiceKitsu is the Kitsu tracking service.
	ServiceKitsu Service = "Kitsu"
)

// Valid reports whether s is a known service.
func (s Service) Valid() bool {
	return s == ServiceKitsu
}

// ItemType is the kind of media a series is.
type ItemType string

const (
	ItemTypeUnknown ItemType = "unknown"
	ItemTypeAnime   ItemType = "anime"
	ItemTypeManga   ItemType = "manga"
)

// InternalID returns the stable integer id persisted for the type.
func (t ItemType) InternalID() int {
	switch t {
	case ItemTypeAnime:
		return 0
	case ItemTypeManga:
		return 1
	default:
		return -1
	}
}

// ItemTypeForInternalID maps a persisted id back to its type.
// Unknown ids map to ItemTypeUnknown.
func ItemTypeForInternalID(id int) ItemType {
	switch id {
	case 0:
		return ItemTypeAnime
	case 1:
		return ItemTypeManga
	default:
		return ItemTypeUnknown
	}
}

// Subtype is the release format of a series, as reported by the tracker.
type Subtype string

const (
	SubtypeUnknown Subtype = "Unknown"
	SubtypeTV      Subtype = "TV"
	SubtypeMovie   Subtype = "Movie"
	SubtypeOVA     Subtype = "OVA"
	SubtypeONA     Subtype = "ONA"
	SubtypeSpecial Subtype = "Special"
	SubtypeMusic   Subtype = "Music"
	SubtypeManga   Subtype = "Manga"
	SubtypeNovel   Subtype = "Novel"
	SubtypeManhua  Subtype = "Manhua"
	SubtypeManhwa  Subtype = "Manhwa"
	SubtypeOneShot Subtype = "OneShot"
	SubtypeDoujin  Subtype = "Doujin"
	SubtypeOEL     Subtype = "OEL"
)

var subtypes = []Subtype{
	SubtypeTV, SubtypeMovie, SubtypeOVA, SubtypeONA, SubtypeSpecial, SubtypeMusic,
	SubtypeManga, SubtypeNovel, SubtypeManhua, SubtypeManhwa, SubtypeOneShot,
	SubtypeDoujin, SubtypeOEL,
}

// ParseSubtype matches s case-insensitively, returning SubtypeUnknown when nothing matches.
func ParseSubtype(s string) Subtype {
	for _, st := range subtypes {
		if strings.EqualFold(string(st), s) {
			return st
		}
	}
	return SubtypeUnknown
}

// UserSeriesStatus is the user's list category for a series.
type UserSeriesStatus string

const (
	StatusUnknown   UserSeriesStatus = "unknown"
	StatusCurrent   UserSeriesStatus = "current"
	StatusCompleted UserSeriesStatus = "completed"
	StatusOnHold    UserSeriesStatus = "on_hold"
	StatusDropped   UserSeriesStatus = "dropped"
	StatusPlanned   UserSeriesStatus = "planned"
)

// FilterableStatuses lists the categories offered in the filter dialog, in display order.
var FilterableStatuses = []UserSeriesStatus{
	StatusCurrent,
	StatusCompleted,
	StatusOnHold,
	StatusDropped,
	StatusPlanned,
}

// Valid reports whether s is a known status, including StatusUnknown.
func (s UserSeriesStatus) Valid() bool {
	switch s {
	case StatusUnknown, StatusCurrent, StatusCompleted, StatusOnHold, StatusDropped, StatusPlanned:
		return true
	default:
		return false
	}
}

// dateLayout is the calendar date format used by the tracker and the cache.
const dateLayout = "2006-01-02"

// Date is a calendar date in YYYY-MM-DD form. The empty Date is unset.
type Date string

// ParseDate validates s as a calendar date. An empty string yields the unset Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date(t.Format(dateLayout)), nil
}

// IsSet reports whether the date has a value.
func (d Date) IsSet() bool {
	return d != ""
}

// Series is one entry of the user's tracked list.
// Values are treated as immutable once published; updates produce copies.
type Series struct {
	UserID         int              `json:"user_id"`
	ID             int              `json:"id"`
	Type           ItemType         `json:"type"`
	Subtype        Subtype          `json:"subtype"`
	Service        Service          `json:"service"`
	Title          string           `json:"title"`
	Status         UserSeriesStatus `json:"status"`
	Progress       int              `json:"progress"`
	TotalLength    int              `json:"total_length"` // 0 when unknown
	StartDate      Date             `json:"start_date,omitempty"`
	EndDate        Date             `json:"end_date,omitempty"`
	PosterImageURL string           `json:"poster_image_url,omitempty"`
	Rating         int              `json:"rating"` // 0-10, 0 when unset
	IsUpdating     bool             `json:"is_updating"`
}

// ProgressText renders progress as "current / total", using "-" for an unknown total.
func (s Series) ProgressText() string {
	total := "-"
	if s.TotalLength > 0 {
		total = strconv.Itoa(s.TotalLength)
	}
	return strconv.Itoa(s.Progress) + " / " + total
}

// ShowPlusOne reports whether progress can still be incremented.
func (s Series) ShowPlusOne() bool {
	return s.TotalLength == 0 || s.Progress < s.TotalLength
}

// CompletesOnIncrement reports whether one more unit reaches the known total.
func (s Series) CompletesOnIncrement() bool {
	return s.TotalLength > 0 && s.Progress+1 == s.TotalLength
}

// DateRange renders the airing/publishing window for display.
func (s Series) DateRange() string {
	switch {
	case !s.StartDate.IsSet() && !s.EndDate.IsSet():
		return "Unknown"
	case s.StartDate == s.EndDate:
		return string(s.StartDate)
	case !s.EndDate.IsSet():
		return string(s.StartDate) + " - Ongoing"
	case !s.StartDate.IsSet():
		return "Unknown - " + string(s.EndDate)
	default:
		return string(s.StartDate) + " - " + string(s.EndDate)
	}
}

// SearchResult is a catalog entry returned by the tracker's search endpoint.
type SearchResult struct {
	ID             int      `json:"id"`
	Type           ItemType `json:"type"`
	Subtype        Subtype  `json:"subtype"`
	Title          string   `json:"title"`
	Synopsis       string   `json:"synopsis,omitempty"` // Markdown
	PosterImageURL string   `json:"poster_image_url,omitempty"`
	Tracked        bool     `json:"tracked"`
}
