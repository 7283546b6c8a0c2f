package collection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

// SeriesCache is the local copy of the tracked list.
type SeriesCache interface {
	ListSeries(ctx context.Context) ([]domain.Series, error)
	ReplaceSeries(ctx context.Context, series []domain.Series) error
	UpsertSeries(ctx context.Context, series domain.Series) error
}

// Dependencies are the collaborators of a session. Cache is optional.
type Dependencies struct {
	Remote         Remote
	Preferences    Preferences
	Cache          SeriesCache
	Logger         *slog.Logger
	RefreshHooks   []RefreshHook
	UpdateHooks    []UpdateHook
	RequestTimeout time.Duration
}

// Session ties a store to the runner and coordinator that serve it.
type Session struct {
	store       *Store
	runner      *Runner
	coordinator *Coordinator
	cache       SeriesCache
	logger      *slog.Logger
	cancel      context.CancelFunc
}

// NewSession loads persisted preferences and builds the session's
// store with them applied.
func NewSession(ctx context.Context, deps Dependencies) (*Session, error) {
	if deps.Remote == nil || deps.Preferences == nil {
		return nil, fmt.Errorf("collection session requires a remote and preferences")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	sort, err := deps.Preferences.SortOption(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sort option: %w", err)
	}
	filters, err := deps.Preferences.FilterOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load filter options: %w", err)
	}
	rate, err := deps.Preferences.RateOnCompletion(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate on completion: %w", err)
	}

	refreshHooks := deps.RefreshHooks
	updateHooks := deps.UpdateHooks
	if deps.Cache != nil {
		refreshHooks = append([]RefreshHook{deps.Cache.ReplaceSeries}, refreshHooks...)
		updateHooks = append([]UpdateHook{deps.Cache.UpsertSeries}, updateHooks...)
	}

	coordinator := NewCoordinator(deps.Remote, timeout, logger, refreshHooks...)
	runner := NewRunner(deps.Remote, deps.Preferences, coordinator, timeout, logger, updateHooks...)
	store := NewStore(NewState(sort, filters, rate), runner, logger)
	runner.Bind(store.Dispatch)

	return &Session{
		store:       store,
		runner:      runner,
		coordinator: coordinator,
		cache:       deps.Cache,
		logger:      logger.With("session_id", store.ID()),
	}, nil
}

// Start begins processing, seeds the list from the cache and, when refresh
// is set, requests a remote fetch.
func (s *Session) Start(ctx context.Context, refresh bool) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.store.Start(ctx)
	go s.runner.Start(ctx)

	if s.cache != nil {
		series, err := s.cache.ListSeries(ctx)
		switch {
		case err != nil:
			s.logger.Warn("failed to load cached series", "error", err)
		case len(series) > 0:
			s.store.Dispatch(SeriesLoaded{Series: series})
		}
	}
	if refresh {
		s.store.Dispatch(RefreshRequested{})
	}
	s.logger.Info("collection session started", "refresh", refresh)
}

// Store returns the session's store.
func (s *Session) Store() *Store {
	return s.store
}

// Dispatch forwards to the store.
func (s *Session) Dispatch(a Action) bool {
	return s.store.Dispatch(a)
}

// Close ends the session. In-flight remote calls keep running and their
// completions are dropped.
func (s *Session) Close() {
	s.store.Close()
	s.runner.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("collection session closed")
}
