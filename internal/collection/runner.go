package collection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

// Remote is the tracker surface a session needs.
type Remote interface {
	Fetcher
	IncrementProgress(ctx context.Context, userID int, rating *int) (domain.Series, error)
}

// Preferences persists the user's list choices between sessions.
type Preferences interface {
	SortOption(ctx context.Context) (domain.SortOption, error)
	SetSortOption(ctx context.Context, opt domain.SortOption) error
	FilterOptions(ctx context.Context) ([]domain.FilterOption, error)
	SetFilterOptions(ctx context.Context, opts []domain.FilterOption) error
	RateOnCompletion(ctx context.Context) (bool, error)
}

// UpdateHook observes a successful progress update before it reaches the store.
type UpdateHook func(ctx context.Context, series domain.Series) error

// Runner executes reducer effects off the store loop and feeds completions
// back through dispatch. Remote calls are not cancelled when the session
// ends; their completions are simply dropped by the closed store.
type Runner struct {
	remote      Remote
	prefs       Preferences
	coordinator *Coordinator
	dispatch    func(Action) bool
	logger      *slog.Logger
	updateHooks []UpdateHook
	persist     chan Effect
	stop        chan struct{}
	timeout     time.Duration
	wg          sync.WaitGroup
	stopOnce    sync.Once
}

// NewRunner creates a runner. Bind must be called before the first effect.
func NewRunner(remote Remote, prefs Preferences, coordinator *Coordinator, timeout time.Duration, logger *slog.Logger, hooks ...UpdateHook) *Runner {
	return &Runner{
		remote:      remote,
		prefs:       prefs,
		coordinator: coordinator,
		timeout:     timeout,
		logger:      logger,
		updateHooks: hooks,
		persist:     make(chan Effect, 32),
		stop:        make(chan struct{}),
	}
}

// Bind sets the function completions are dispatched through.
func (r *Runner) Bind(dispatch func(Action) bool) {
	r.dispatch = dispatch
}

// Start runs the preference writer until ctx is cancelled or Stop is called.
// Writes are applied one at a time in the order they were requested.
func (r *Runner) Start(ctx context.Context) {
	for {
		select {
		case e := <-r.persist:
			r.writePreference(e)
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		}
	}
}

// Stop ends the preference writer. Queued writes are discarded.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Wait blocks until in-flight remote calls have delivered their completions.
func (r *Runner) Wait() {
	r.wg.Wait()
	r.coordinator.Wait()
}

// Handle implements EffectHandler.
func (r *Runner) Handle(e Effect) {
	switch e := e.(type) {
	case FetchSeries:
		r.coordinator.Request(r.dispatch)

	case IncrementProgress:
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.increment(e)
		}()

	case PersistSort, PersistFilters:
		select {
		case r.persist <- e:
		default:
			r.logger.Warn("preference queue full, write dropped", "effect", e.effectName())
		}

	default:
		r.logger.Warn("unhandled effect", "effect", e.effectName())
	}
}

func (r *Runner) increment(e IncrementProgress) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	series, err := r.remote.IncrementProgress(ctx, e.ID, e.Rating)
	if err != nil {
		r.logger.Warn("progress update failed", "series_id", e.ID, "error", err)
	} else {
		for _, hook := range r.updateHooks {
			if hookErr := hook(ctx, series); hookErr != nil {
				r.logger.Error("update hook failed", "series_id", e.ID, "error", hookErr)
			}
		}
	}

	r.dispatch(IncrementCompleted{ID: e.ID, Series: series, Err: err})
}

func (r *Runner) writePreference(e Effect) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var err error
	switch e := e.(type) {
	case PersistSort:
		err = r.prefs.SetSortOption(ctx, e.Option)
	case PersistFilters:
		err = r.prefs.SetFilterOptions(ctx, e.Options)
	}
	if err != nil {
		r.logger.Error("failed to persist preference", "effect", e.effectName(), "error", err)
	}
}
