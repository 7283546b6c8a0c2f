package collection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-tracker/internal/domain"
)

// fakeRemote blocks each fetch until release is closed.
type fakeRemote struct {
	release    chan struct{}
	series     []domain.Series
	fetchErr   error
	incErr     error
	fetches    atomic.Int32
	increments atomic.Int32
}

func newFakeRemote(list ...domain.Series) *fakeRemote {
	r := &fakeRemote{release: make(chan struct{}), series: list}
	return r
}

func (r *fakeRemote) FetchSeriesList(ctx context.Context) ([]domain.Series, error) {
	r.fetches.Add(1)
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return append([]domain.Series(nil), r.series...), nil
}

func (r *fakeRemote) IncrementProgress(ctx context.Context, userID int, rating *int) (domain.Series, error) {
	r.increments.Add(1)
	select {
	case <-r.release:
	case <-ctx.Done():
		return domain.Series{}, ctx.Err()
	}
	if r.incErr != nil {
		return domain.Series{}, r.incErr
	}
	for _, s := range r.series {
		if s.UserID == userID {
			s.Progress++
			if rating != nil {
				s.Rating = *rating
			}
			return s, nil
		}
	}
	return domain.Series{}, errors.New("not found")
}

type actionLog struct {
	mu      sync.Mutex
	actions []Action
	got     chan struct{}
}

func newActionLog() *actionLog {
	return &actionLog{got: make(chan struct{}, 16)}
}

func (l *actionLog) dispatch(a Action) bool {
	l.mu.Lock()
	l.actions = append(l.actions, a)
	l.mu.Unlock()
	l.got <- struct{}{}
	return true
}

func (l *actionLog) wait(t *testing.T) {
	t.Helper()
	select {
	case <-l.got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func TestCoordinator_SingleFetchInFlight(t *testing.T) {
	remote := newFakeRemote(series(1, "Mob Psycho", domain.StatusCurrent))
	c := NewCoordinator(remote, time.Second, slog.New(slog.DiscardHandler))
	log := newActionLog()

	require.True(t, c.Request(log.dispatch))
	assert.True(t, c.Fetching())
	assert.False(t, c.Request(log.dispatch), "second request must be ignored")

	close(remote.release)
	log.wait(t)
	c.Wait()

	assert.Equal(t, int32(1), remote.fetches.Load())
	assert.False(t, c.Fetching())
	require.Len(t, log.actions, 1)
	done, ok := log.actions[0].(RefreshCompleted)
	require.True(t, ok)
	assert.NoError(t, done.Err)
	assert.Len(t, done.Series, 1)

	assert.True(t, c.Request(log.dispatch), "idle again after completion")
	log.wait(t)
	c.Wait()
	assert.Equal(t, int32(2), remote.fetches.Load())
}

func TestCoordinator_FailureDispatchesError(t *testing.T) {
	remote := newFakeRemote()
	remote.fetchErr = errors.New("offline")
	close(remote.release)

	var hookCalled atomic.Bool
	hook := func(context.Context, []domain.Series) error {
		hookCalled.Store(true)
		return nil
	}
	c := NewCoordinator(remote, time.Second, slog.New(slog.DiscardHandler), hook)
	log := newActionLog()

	c.Request(log.dispatch)
	log.wait(t)
	c.Wait()

	done := log.actions[0].(RefreshCompleted)
	assert.EqualError(t, done.Err, "offline")
	assert.False(t, hookCalled.Load())
}

func TestCoordinator_HooksSeeFetchedList(t *testing.T) {
	remote := newFakeRemote(series(1, "Mob Psycho", domain.StatusCurrent))
	close(remote.release)

	var seen []domain.Series
	hook := func(_ context.Context, list []domain.Series) error {
		seen = list
		return errors.New("disk full")
	}
	c := NewCoordinator(remote, time.Second, slog.New(slog.DiscardHandler), hook)
	log := newActionLog()

	c.Request(log.dispatch)
	log.wait(t)
	c.Wait()

	assert.Len(t, seen, 1)
	assert.NoError(t, log.actions[0].(RefreshCompleted).Err, "hook errors do not fail the refresh")
}

func TestCoordinator_Timeout(t *testing.T) {
	remote := newFakeRemote()
	c := NewCoordinator(remote, 10*time.Millisecond, slog.New(slog.DiscardHandler))
	log := newActionLog()

	c.Request(log.dispatch)
	log.wait(t)
	c.Wait()

	assert.ErrorIs(t, log.actions[0].(RefreshCompleted).Err, context.DeadlineExceeded)
}
