package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-tracker/internal/collection"
	"github.com/listenupapp/listenup-tracker/internal/domain"
	domainerrors "github.com/listenupapp/listenup-tracker/internal/errors"
	"github.com/listenupapp/listenup-tracker/internal/lookup"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/collection",
		Summary:     "Get collection state",
		Description: "Returns the current view-state of the tracked series list",
		Tags:        []string{"Collection"},
	}, s.handleGetCollection)

	huma.Register(s.api, huma.Operation{
		OperationID:   "dispatchCollectionAction",
		Method:        http.MethodPost,
		Path:          "/api/v1/collection/actions",
		Summary:       "Dispatch action",
		Description:   "Queues a user action. The resulting state is published on the stream.",
		Tags:          []string{"Collection"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleDispatchAction)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollectionSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/collection/series/{id}",
		Summary:     "Get tracked series",
		Description: "Returns a tracked series from the live list, falling back to the local cache",
		Tags:        []string{"Collection"},
	}, s.handleGetSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "lookupCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/collection/lookup",
		Summary:     "Look up tracked series",
		Description: "Full-text search over the tracked list",
		Tags:        []string{"Collection"},
	}, s.handleLookup)
}

// === DTOs ===

// CollectionResponse is a snapshot of the session state.
type CollectionResponse struct {
	SessionID string           `json:"session_id" doc:"Collection session ID, usable as the stream filter"`
	View      collection.View  `json:"view" doc:"list or empty"`
	State     collection.State `json:"state" doc:"Full view-state"`
}

// CollectionOutput wraps the collection response for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// ActionRequest is the wire form of a user action.
type ActionRequest struct {
	Type    string                `json:"type" enum:"refresh_requested,series_pressed,increment_pressed,increment_with_rating,rating_dialog_dismissed,sort_pressed,sort_requested,sort_dismissed,filter_pressed,filter_requested,filter_dismissed,snackbar_observed,navigation_observed" doc:"Action name"`
	ID      int                   `json:"id,omitempty" doc:"Series user ID for series actions"`
	Rating  *int                  `json:"rating,omitempty" minimum:"0" maximum:"10" doc:"Rating for increment_with_rating"`
	Option  domain.SortOption     `json:"option,omitempty" enum:"default,title,start_date,end_date,rating" doc:"Sort option for sort_requested"`
	Filters []domain.FilterOption `json:"filters,omitempty" doc:"Filter set for filter_requested"`
}

// DispatchActionInput contains the action to dispatch.
type DispatchActionInput struct {
	Body ActionRequest
}

// DispatchActionOutput acknowledges a queued action.
type DispatchActionOutput struct {
	Body struct {
		Action string `json:"action" doc:"Name of the queued action"`
	}
}

// GetSeriesInput identifies a tracked series.
type GetSeriesInput struct {
	ID int `path:"id" minimum:"1" doc:"Series user ID"`
}

// SeriesResponse is a single tracked series.
type SeriesResponse struct {
	Series domain.Series `json:"series"`
	Live   bool          `json:"live" doc:"False when served from the cache because the live list does not hold it"`
}

// SeriesOutput wraps a series response for Huma.
type SeriesOutput struct {
	Body SeriesResponse
}

// LookupInput contains lookup parameters.
type LookupInput struct {
	Query  string `query:"q" required:"true" minLength:"1" maxLength:"100" doc:"Search text"`
	Status string `query:"status" enum:"unknown,current,completed,on_hold,dropped,planned" doc:"Restrict to one list category"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum hits"`
}

// LookupResult is a tracked series matching a lookup.
type LookupResult struct {
	Series domain.Series `json:"series"`
	Score  float64       `json:"score"`
}

// LookupOutput wraps lookup results for Huma.
type LookupOutput struct {
	Body struct {
		Results []LookupResult `json:"results"`
	}
}

// === Handlers ===

func (s *Server) handleGetCollection(_ context.Context, _ *struct{}) (*CollectionOutput, error) {
	store := s.services.Session.Store()
	state := store.State()
	return &CollectionOutput{
		Body: CollectionResponse{
			SessionID: store.ID(),
			View:      state.View(),
			State:     state,
		},
	}, nil
}

func (s *Server) handleDispatchAction(_ context.Context, input *DispatchActionInput) (*DispatchActionOutput, error) {
	action, err := decodeAction(input.Body)
	if err != nil {
		return nil, mapError(err)
	}

	if !s.services.Session.Dispatch(action) {
		return nil, huma.Error503ServiceUnavailable("collection session is closed")
	}

	out := &DispatchActionOutput{}
	out.Body.Action = collection.ActionName(action)
	return out, nil
}

func (s *Server) handleGetSeries(ctx context.Context, input *GetSeriesInput) (*SeriesOutput, error) {
	if series, ok := s.services.Session.Store().State().Find(input.ID); ok {
		return &SeriesOutput{Body: SeriesResponse{Series: series, Live: true}}, nil
	}
	if s.services.Cache == nil {
		return nil, huma.Error404NotFound("series not found")
	}

	series, err := s.services.Cache.GetSeries(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &SeriesOutput{Body: SeriesResponse{Series: series}}, nil
}

func (s *Server) handleLookup(ctx context.Context, input *LookupInput) (*LookupOutput, error) {
	if s.services.Lookup == nil {
		return nil, huma.Error503ServiceUnavailable("lookup index not configured")
	}

	hits, err := s.services.Lookup.Search(ctx, lookup.Params{
		Query:  input.Query,
		Status: domain.UserSeriesStatus(input.Status),
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, mapError(domainerrors.Wrap(err, domainerrors.CodeInternal, "lookup failed"))
	}

	// The index can trail the live state by one refresh; resolve against the state.
	state := s.services.Session.Store().State()
	out := &LookupOutput{}
	out.Body.Results = make([]LookupResult, 0, len(hits))
	for _, hit := range hits {
		series, ok := state.Find(hit.UserID)
		if !ok {
			continue
		}
		// The index keeps the status from the last refresh.
		if input.Status != "" && series.Status != domain.UserSeriesStatus(input.Status) {
			continue
		}
		out.Body.Results = append(out.Body.Results, LookupResult{Series: series, Score: hit.Score})
	}
	return out, nil
}

// decodeAction maps a wire action onto the reducer's action types.
// Completion actions are internal and cannot be dispatched over HTTP.
func decodeAction(req ActionRequest) (collection.Action, error) {
	needsID := func() error {
		if req.ID <= 0 {
			return domainerrors.ValidationWithDetails("validation failed", map[string]string{"id": "is required"})
		}
		return nil
	}

	switch req.Type {
	case "refresh_requested":
		return collection.RefreshRequested{}, nil
	case "series_pressed":
		if err := needsID(); err != nil {
			return nil, err
		}
		return collection.SeriesPressed{ID: req.ID}, nil
	case "increment_pressed":
		if err := needsID(); err != nil {
			return nil, err
		}
		return collection.IncrementPressed{ID: req.ID}, nil
	case "increment_with_rating":
		if err := needsID(); err != nil {
			return nil, err
		}
		return collection.IncrementWithRating{ID: req.ID, Rating: req.Rating}, nil
	case "rating_dialog_dismissed":
		return collection.RatingDialogDismissed{}, nil
	case "sort_pressed":
		return collection.SortPressed{}, nil
	case "sort_requested":
		return collection.SortRequested{Option: req.Option}, nil
	case "sort_dismissed":
		return collection.SortDismissed{}, nil
	case "filter_pressed":
		return collection.FilterPressed{}, nil
	case "filter_requested":
		return collection.FilterRequested{Options: req.Filters}, nil
	case "filter_dismissed":
		return collection.FilterDismissed{}, nil
	case "snackbar_observed":
		return collection.SnackbarObserved{}, nil
	case "navigation_observed":
		return collection.NavigationObserved{}, nil
	default:
		return nil, domainerrors.Validationf("unknown action %q", req.Type)
	}
}
