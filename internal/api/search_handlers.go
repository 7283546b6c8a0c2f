package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-tracker/internal/domain"
	"github.com/listenupapp/listenup-tracker/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search catalog",
		Description: "Searches the tracker catalog and marks series already tracked",
		Tags:        []string{"Search"},
		Middlewares: huma.Middlewares{s.rateLimitSearch},
	}, s.handleSearch)
}

// SearchInput contains a search submission.
type SearchInput struct {
	Body search.Request
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body struct {
		Results []domain.SearchResult `json:"results"`
	}
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("search not configured")
	}

	results, err := s.services.Search.Submit(ctx, input.Body)
	if err != nil {
		return nil, mapError(err)
	}

	out := &SearchOutput{}
	out.Body.Results = results
	return out, nil
}
