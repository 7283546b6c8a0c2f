// Package search runs catalogue searches against the remote tracker and
// marks results the user already tracks.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/listenupapp/listenup-tracker/internal/domain"
	domainerrors "github.com/listenupapp/listenup-tracker/internal/errors"
	"github.com/listenupapp/listenup-tracker/internal/validation"
)

// Remote searches the tracker catalogue.
type Remote interface {
	Search(ctx context.Context, term string, itemType domain.ItemType) ([]domain.SearchResult, error)
}

// Tracked reports which media ids of a type are already in the user's list.
type Tracked interface {
	TrackedMediaIDs(ctx context.Context, itemType domain.ItemType) (map[int]bool, error)
}

// Request is a search submission.
type Request struct {
	Term string          `json:"term" validate:"notblank,max=100"`
	Type domain.ItemType `json:"type,omitempty" validate:"omitempty,oneof=anime manga"`
}

// Service validates search requests and queries the tracker.
type Service struct {
	remote    Remote
	tracked   Tracked
	validator *validation.Validator
	logger    *slog.Logger
}

// NewService creates a search service. tracked may be nil.
func NewService(remote Remote, tracked Tracked, validator *validation.Validator, logger *slog.Logger) *Service {
	return &Service{
		remote:    remote,
		tracked:   tracked,
		validator: validator,
		logger:    logger,
	}
}

// Submit runs a search.
//
// A blank term fails validation without contacting the tracker. A tracker
// failure yields a network error and zero matches an empty-result error.
func (s *Service) Submit(ctx context.Context, req Request) ([]domain.SearchResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	term := strings.TrimSpace(req.Term)
	itemType := req.Type
	if itemType == "" {
		itemType = domain.ItemTypeAnime
	}

	results, err := s.remote.Search(ctx, term, itemType)
	if err != nil {
		s.logger.Warn("search failed", "term", term, "type", itemType, "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeNetwork, "search is unavailable")
	}
	if len(results) == 0 {
		return nil, domainerrors.EmptyResult("no series found").WithDetails(map[string]string{"term": term})
	}

	if s.tracked != nil {
		ids, err := s.tracked.TrackedMediaIDs(ctx, itemType)
		if err != nil {
			s.logger.Warn("failed to resolve tracked series", "error", err)
		}
		for i := range results {
			results[i].Tracked = ids[results[i].ID]
		}
	}

	s.logger.Debug("search complete", "term", term, "type", itemType, "count", len(results))
	return results, nil
}
