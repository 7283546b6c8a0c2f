package collection

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

type memoryPrefs struct {
	mu      sync.Mutex
	sort    domain.SortOption
	filters []domain.FilterOption
	rate    bool
	writes  []domain.SortOption
}

func (p *memoryPrefs) SortOption(context.Context) (domain.SortOption, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sort, nil
}

func (p *memoryPrefs) SetSortOption(_ context.Context, opt domain.SortOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sort = opt
	p.writes = append(p.writes, opt)
	return nil
}

func (p *memoryPrefs) FilterOptions(context.Context) ([]domain.FilterOption, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filters, nil
}

func (p *memoryPrefs) SetFilterOptions(_ context.Context, opts []domain.FilterOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters = opts
	return nil
}

func (p *memoryPrefs) RateOnCompletion(context.Context) (bool, error) {
	return p.rate, nil
}

func (p *memoryPrefs) sortWrites() []domain.SortOption {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SortOption(nil), p.writes...)
}

type memoryCache struct {
	mu     sync.Mutex
	series []domain.Series
}

func (c *memoryCache) ListSeries(context.Context) ([]domain.Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Series(nil), c.series...), nil
}

func (c *memoryCache) ReplaceSeries(_ context.Context, list []domain.Series) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = append([]domain.Series(nil), list...)
	return nil
}

func (c *memoryCache) UpsertSeries(_ context.Context, s domain.Series) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.series {
		if c.series[i].UserID == s.UserID {
			c.series[i] = s
			return nil
		}
	}
	c.series = append(c.series, s)
	return nil
}

func (c *memoryCache) snapshot() []domain.Series {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Series(nil), c.series...)
}

func newTestSession(t *testing.T, remote Remote, prefs Preferences, cache SeriesCache) *Session {
	t.Helper()
	session, err := NewSession(context.Background(), Dependencies{
		Remote:         remote,
		Preferences:    prefs,
		Cache:          cache,
		Logger:         slog.New(slog.DiscardHandler),
		RequestTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return session
}

// waitFor polls the store until cond holds.
func waitFor(t *testing.T, store *Store, cond func(State) bool) State {
	t.Helper()
	var s State
	require.Eventually(t, func() bool {
		s = store.State()
		return cond(s)
	}, 2*time.Second, 5*time.Millisecond)
	return s
}

func TestNewSession_RequiresCollaborators(t *testing.T) {
	_, err := NewSession(context.Background(), Dependencies{})
	assert.Error(t, err)
}

func TestSession_AppliesPersistedPreferences(t *testing.T) {
	prefs := &memoryPrefs{
		sort:    domain.SortTitle,
		filters: []domain.FilterOption{{Status: domain.StatusDropped, Included: false}},
		rate:    true,
	}
	session := newTestSession(t, newFakeRemote(), prefs, nil)

	s := session.Store().State()
	assert.Equal(t, domain.SortTitle, s.Sort)
	assert.True(t, s.RateOnCompletion)
	assert.False(t, domain.Includes(s.Filters, domain.StatusDropped))
	assert.Len(t, s.Filters, len(domain.FilterableStatuses))
}

func TestSession_SeedsFromCacheThenRefreshes(t *testing.T) {
	remote := newFakeRemote(
		series(1, "Mob Psycho", domain.StatusCurrent),
		series(2, "Akira", domain.StatusCompleted),
	)
	cache := &memoryCache{series: []domain.Series{series(1, "Mob Psycho", domain.StatusCurrent)}}
	session := newTestSession(t, remote, &memoryPrefs{}, cache)

	session.Start(context.Background(), true)
	defer session.Close()

	s := waitFor(t, session.Store(), func(s State) bool { return len(s.Models) == 1 && s.IsRefreshing })
	assert.Equal(t, ViewList, s.View())

	close(remote.release)
	s = waitFor(t, session.Store(), func(s State) bool { return !s.IsRefreshing })
	assert.Len(t, s.Models, 2)
	assert.Len(t, cache.snapshot(), 2)
}

func TestSession_DuplicateRefreshFetchesOnce(t *testing.T) {
	remote := newFakeRemote(series(1, "Mob Psycho", domain.StatusCurrent))
	session := newTestSession(t, remote, &memoryPrefs{}, nil)
	session.Start(context.Background(), false)
	defer session.Close()

	session.Dispatch(RefreshRequested{})
	session.Dispatch(RefreshRequested{})
	waitFor(t, session.Store(), func(s State) bool { return s.IsRefreshing })

	close(remote.release)
	s := waitFor(t, session.Store(), func(s State) bool { return !s.IsRefreshing && len(s.Models) == 1 })

	session.runner.Wait()
	assert.Equal(t, int32(1), remote.fetches.Load())
	assert.Nil(t, s.ErrorSnackbar)
}

func TestSession_IncrementUpdatesCache(t *testing.T) {
	mob := series(1, "Mob Psycho", domain.StatusCurrent)
	remote := newFakeRemote(mob)
	close(remote.release)
	cache := &memoryCache{series: []domain.Series{mob}}
	session := newTestSession(t, remote, &memoryPrefs{}, cache)
	session.Start(context.Background(), false)
	defer session.Close()

	waitFor(t, session.Store(), func(s State) bool { return len(s.Models) == 1 })
	session.Dispatch(IncrementPressed{ID: 1})

	s := waitFor(t, session.Store(), func(s State) bool {
		return len(s.Models) == 1 && s.Models[0].Progress == 2 && !s.Models[0].IsUpdating
	})
	assert.Nil(t, s.ErrorSnackbar)
	assert.Equal(t, 2, cache.snapshot()[0].Progress)
}

func TestSession_PersistsPreferencesInOrder(t *testing.T) {
	prefs := &memoryPrefs{}
	session := newTestSession(t, newFakeRemote(), prefs, nil)
	session.Start(context.Background(), false)
	defer session.Close()

	session.Dispatch(SortRequested{Option: domain.SortTitle})
	session.Dispatch(SortRequested{Option: domain.SortRating})
	session.Dispatch(SortRequested{Option: domain.SortStartDate})

	require.Eventually(t, func() bool { return len(prefs.sortWrites()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.SortOption{domain.SortTitle, domain.SortRating, domain.SortStartDate}, prefs.sortWrites())
}

func TestSession_CompletionAfterCloseIsDropped(t *testing.T) {
	mob := series(1, "Mob Psycho", domain.StatusCurrent)
	remote := newFakeRemote(mob)
	session := newTestSession(t, remote, &memoryPrefs{}, nil)
	session.Start(context.Background(), false)

	session.Dispatch(SeriesLoaded{Series: []domain.Series{mob}})
	session.Dispatch(IncrementPressed{ID: 1})
	waitFor(t, session.Store(), func(s State) bool { return len(s.Models) == 1 && s.Models[0].IsUpdating })

	session.Close()
	close(remote.release)
	session.runner.Wait()

	// The remote call completed; only its completion was dropped.
	assert.Equal(t, int32(1), remote.increments.Load())
	s := session.Store().State()
	assert.True(t, s.Models[0].IsUpdating)
	assert.Equal(t, 1, s.Models[0].Progress)
	assert.False(t, session.Dispatch(RefreshRequested{}))
}
