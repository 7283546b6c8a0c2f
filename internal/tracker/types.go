package tracker

import "encoding/json"

// Raw JSON:API documents (internal)

type rawDocument struct {
	Data     json.RawMessage `json:"data"`
	Included []rawResource   `json:"included"`
	Links    rawLinks        `json:"links"`
}

type rawLinks struct {
	Next string `json:"next"`
}

type rawResource struct {
	ID            string                     `json:"id"`
	Type          string                     `json:"type"`
	Attributes    json.RawMessage            `json:"attributes"`
	Relationships map[string]rawRelationship `json:"relationships"`
}

type rawRelationship struct {
	Data *rawIdentifier `json:"data"`
}

type rawIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type rawEntryAttributes struct {
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	RatingTwenty *int   `json:"ratingTwenty"`
}

type rawMediaAttributes struct {
	CanonicalTitle string          `json:"canonicalTitle"`
	Subtype        string          `json:"subtype"`
	Synopsis       string          `json:"synopsis"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	EpisodeCount   *int            `json:"episodeCount"`
	ChapterCount   *int            `json:"chapterCount"`
	PosterImage    *rawPosterImage `json:"posterImage"`
}

type rawPosterImage struct {
	Tiny     string `json:"tiny"`
	Small    string `json:"small"`
	Medium   string `json:"medium"`
	Large    string `json:"large"`
	Original string `json:"original"`
}

// url picks the best available poster, preferring medium.
func (p *rawPosterImage) url() string {
	if p == nil {
		return ""
	}
	for _, u := range []string{p.Medium, p.Large, p.Original, p.Small, p.Tiny} {
		if u != "" {
			return u
		}
	}
	return ""
}

// length returns the episode or chapter count, 0 when unknown.
func (a rawMediaAttributes) length() int {
	switch {
	case a.EpisodeCount != nil:
		return *a.EpisodeCount
	case a.ChapterCount != nil:
		return *a.ChapterCount
	default:
		return 0
	}
}

type patchDocument struct {
	Data patchResource `json:"data"`
}

type patchResource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes patchAttributes `json:"attributes"`
}

type patchAttributes struct {
	Progress     int  `json:"progress"`
	RatingTwenty *int `json:"ratingTwenty,omitempty"`
}
