package collection

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

// Fetcher retrieves the user's tracked series from the remote tracker.
type Fetcher interface {
	FetchSeriesList(ctx context.Context) ([]domain.Series, error)
}

// RefreshHook observes a successful fetch before its result reaches the
// store, e.g. to update the local cache. Errors are logged and ignored.
type RefreshHook func(ctx context.Context, series []domain.Series) error

// Coordinator guarantees at most one fetch of the series list is in flight.
// A request made while fetching is ignored, not queued.
type Coordinator struct {
	fetcher  Fetcher
	logger   *slog.Logger
	hooks    []RefreshHook
	timeout  time.Duration
	wg       sync.WaitGroup
	fetching atomic.Bool
}

// NewCoordinator creates a coordinator. Each fetch runs detached from the
// requester with the given timeout.
func NewCoordinator(fetcher Fetcher, timeout time.Duration, logger *slog.Logger, hooks ...RefreshHook) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
		hooks:   hooks,
	}
}

// Request starts a fetch unless one is already running. On completion the
// coordinator returns to idle and then dispatches RefreshCompleted.
// It reports whether a fetch was started.
func (c *Coordinator) Request(dispatch func(Action) bool) bool {
	if !c.fetching.CompareAndSwap(false, true) {
		c.logger.Debug("refresh already in flight, request ignored")
		return false
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		start := time.Now()
		series, err := c.fetcher.FetchSeriesList(ctx)
		if err != nil {
			c.logger.Warn("series refresh failed", "error", err, "duration", time.Since(start))
		} else {
			c.logger.Info("series refreshed", "count", len(series), "duration", time.Since(start))
			for _, hook := range c.hooks {
				if hookErr := hook(ctx, series); hookErr != nil {
					c.logger.Error("refresh hook failed", "error", hookErr)
				}
			}
		}

		c.fetching.Store(false)
		dispatch(RefreshCompleted{Series: series, Err: err})
	}()
	return true
}

// Fetching reports whether a fetch is in flight.
func (c *Coordinator) Fetching() bool {
	return c.fetching.Load()
}

// Wait blocks until every started fetch has delivered its completion.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
