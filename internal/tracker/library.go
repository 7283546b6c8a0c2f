package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

const includeMedia = "anime,manga"

// FetchSeriesList returns every library entry of the configured user in
// the tracker's order.
func (c *Client) FetchSeriesList(ctx context.Context) ([]domain.Series, error) {
	var out []domain.Series

	for offset := 0; ; {
		query := url.Values{}
		query.Set("filter[userId]", strconv.Itoa(c.userID))
		query.Set("include", includeMedia)
		query.Set("page[limit]", strconv.Itoa(libraryPageSize))
		query.Set("page[offset]", strconv.Itoa(offset))

		body, err := c.doRequest(ctx, http.MethodGet, "/library-entries", query, nil)
		if err != nil {
			return nil, wrapError("fetch", 0, err)
		}

		var doc rawDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, wrapError("fetch", 0, fmt.Errorf("%w: %v", ErrMalformed, err))
		}
		var entries []rawResource
		if err := json.Unmarshal(doc.Data, &entries); err != nil {
			return nil, wrapError("fetch", 0, fmt.Errorf("%w: %v", ErrMalformed, err))
		}

		media := indexIncluded(doc.Included)
		for _, entry := range entries {
			s, err := toSeries(entry, media)
			if err != nil {
				c.logger.Warn("skipping library entry", "entry_id", entry.ID, "error", err)
				continue
			}
			out = append(out, s)
		}

		if doc.Links.Next == "" || len(entries) == 0 {
			break
		}
		offset += len(entries)
	}

	c.logger.Debug("fetched library", "user_id", c.userID, "count", len(out))
	if out == nil {
		out = []domain.Series{}
	}
	return out, nil
}

// IncrementProgress advances a library entry by one unit. A non-nil rating
// on the 0-10 scale is stored alongside; zero leaves the rating unchanged.
func (c *Client) IncrementProgress(ctx context.Context, userID int, rating *int) (domain.Series, error) {
	current, err := c.getEntry(ctx, userID)
	if err != nil {
		return domain.Series{}, wrapError("increment", userID, err)
	}

	patch := patchDocument{Data: patchResource{
		ID:         strconv.Itoa(userID),
		Type:       "libraryEntries",
		Attributes: patchAttributes{Progress: current.Progress + 1},
	}}
	if rating != nil && *rating > 0 {
		twenty := *rating * 2
		patch.Data.Attributes.RatingTwenty = &twenty
	}

	payload, err := json.Marshal(patch)
	if err != nil {
		return domain.Series{}, wrapError("increment", userID, err)
	}

	query := url.Values{}
	query.Set("include", includeMedia)
	body, err := c.doRequest(ctx, http.MethodPatch, "/library-entries/"+strconv.Itoa(userID), query, payload)
	if err != nil {
		return domain.Series{}, wrapError("increment", userID, err)
	}

	updated, err := decodeEntry(body)
	if err != nil {
		return domain.Series{}, wrapError("increment", userID, err)
	}

	c.logger.Info("progress updated",
		"entry_id", userID,
		"title", updated.Title,
		"progress", updated.Progress,
	)
	return updated, nil
}

func (c *Client) getEntry(ctx context.Context, userID int) (domain.Series, error) {
	query := url.Values{}
	query.Set("include", includeMedia)
	body, err := c.doRequest(ctx, http.MethodGet, "/library-entries/"+strconv.Itoa(userID), query, nil)
	if err != nil {
		return domain.Series{}, err
	}
	return decodeEntry(body)
}

func decodeEntry(body []byte) (domain.Series, error) {
	var doc rawDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.Series{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var entry rawResource
	if err := json.Unmarshal(doc.Data, &entry); err != nil {
		return domain.Series{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return toSeries(entry, indexIncluded(doc.Included))
}

func indexIncluded(included []rawResource) map[string]rawResource {
	m := make(map[string]rawResource, len(included))
	for _, r := range included {
		m[r.Type+":"+r.ID] = r
	}
	return m
}

// toSeries joins a library entry with its included media resource.
func toSeries(entry rawResource, media map[string]rawResource) (domain.Series, error) {
	userID, err := strconv.Atoi(entry.ID)
	if err != nil {
		return domain.Series{}, fmt.Errorf("%w: entry id %q", ErrMalformed, entry.ID)
	}

	var attrs rawEntryAttributes
	if err := json.Unmarshal(entry.Attributes, &attrs); err != nil {
		return domain.Series{}, fmt.Errorf("%w: entry attributes: %v", ErrMalformed, err)
	}

	ref, itemType := mediaRef(entry)
	if ref == nil {
		return domain.Series{}, fmt.Errorf("%w: entry %d has no media", ErrMalformed, userID)
	}
	res, ok := media[ref.Type+":"+ref.ID]
	if !ok {
		return domain.Series{}, fmt.Errorf("%w: media %s/%s not included", ErrMalformed, ref.Type, ref.ID)
	}
	mediaID, err := strconv.Atoi(res.ID)
	if err != nil {
		return domain.Series{}, fmt.Errorf("%w: media id %q", ErrMalformed, res.ID)
	}

	var m rawMediaAttributes
	if err := json.Unmarshal(res.Attributes, &m); err != nil {
		return domain.Series{}, fmt.Errorf("%w: media attributes: %v", ErrMalformed, err)
	}

	status := domain.UserSeriesStatus(attrs.Status)
	if !status.Valid() {
		status = domain.StatusUnknown
	}

	return domain.Series{
		UserID:         userID,
		ID:             mediaID,
		Type:           itemType,
		Subtype:        domain.ParseSubtype(m.Subtype),
		Service:        domain.ServiceKitsu,
		Title:          plainTitle(m.CanonicalTitle),
		Status:         status,
		Progress:       attrs.Progress,
		TotalLength:    m.length(),
		StartDate:      parseDate(m.StartDate),
		EndDate:        parseDate(m.EndDate),
		PosterImageURL: m.PosterImage.url(),
		Rating:         fromTwenty(attrs.RatingTwenty),
	}, nil
}

func mediaRef(entry rawResource) (*rawIdentifier, domain.ItemType) {
	if rel, ok := entry.Relationships["anime"]; ok && rel.Data != nil {
		return rel.Data, domain.ItemTypeAnime
	}
	if rel, ok := entry.Relationships["manga"]; ok && rel.Data != nil {
		return rel.Data, domain.ItemTypeManga
	}
	return nil, domain.ItemTypeUnknown
}

// fromTwenty converts the tracker's 2-20 scale to 0-10, rounding up.
func fromTwenty(r *int) int {
	if r == nil || *r <= 0 {
		return 0
	}
	return (*r + 1) / 2
}

func parseDate(s string) domain.Date {
	d, err := domain.ParseDate(s)
	if err != nil {
		return ""
	}
	return d
}
