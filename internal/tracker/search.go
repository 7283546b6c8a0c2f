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

// Search queries the catalogue for media matching term. An unknown item
// type searches anime. Zero matches is not an error.
func (c *Client) Search(ctx context.Context, term string, itemType domain.ItemType) ([]domain.SearchResult, error) {
	if itemType != domain.ItemTypeManga {
		itemType = domain.ItemTypeAnime
	}

	query := url.Values{}
	query.Set("filter[text]", term)
	query.Set("page[limit]", strconv.Itoa(searchPageSize))

	body, err := c.doRequest(ctx, http.MethodGet, "/"+string(itemType), query, nil)
	if err != nil {
		return nil, wrapError("search", 0, err)
	}

	var doc rawDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, wrapError("search", 0, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	var resources []rawResource
	if err := json.Unmarshal(doc.Data, &resources); err != nil {
		return nil, wrapError("search", 0, fmt.Errorf("%w: %v", ErrMalformed, err))
	}

	results := make([]domain.SearchResult, 0, len(resources))
	for _, r := range resources {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			c.logger.Warn("skipping search result", "id", r.ID, "error", err)
			continue
		}
		var m rawMediaAttributes
		if err := json.Unmarshal(r.Attributes, &m); err != nil {
			c.logger.Warn("skipping search result", "id", r.ID, "error", err)
			continue
		}
		results = append(results, domain.SearchResult{
			ID:             id,
			Type:           itemType,
			Subtype:        domain.ParseSubtype(m.Subtype),
			Title:          plainTitle(m.CanonicalTitle),
			Synopsis:       synopsisMarkdown(m.Synopsis),
			PosterImageURL: m.PosterImage.url(),
		})
	}

	c.logger.Debug("search complete", "term", term, "type", itemType, "count", len(results))
	return results, nil
}
