package collection

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// EffectHandler executes effects emitted by the reducer. Handle is called on
// the store loop and must not block.
type EffectHandler interface {
	Handle(Effect)
}

// Subscriber receives every state the store produces, in order. It is
// called on the store loop and must not block or dispatch synchronously.
type Subscriber func(State)

// Store serializes all actions of one session through a single loop.
// Each action is reduced against the latest state, the resulting effects are
// handed to the EffectHandler, then the new state is published to subscribers.
// An observer of a state can therefore rely on its effects being registered.
type Store struct {
	effects EffectHandler
	actions chan Action
	done    chan struct{}
	logger  *slog.Logger
	id      string
	state   State
	subs    map[int]Subscriber
	nextSub int
	wg      sync.WaitGroup

	// stateMu guards state; publishMu orders publication against Subscribe.
	stateMu   sync.RWMutex
	publishMu sync.Mutex
	closeOnce sync.Once
}

// NewStore creates a store seeded with initial. Call Start to begin processing.
func NewStore(initial State, effects EffectHandler, logger *slog.Logger) *Store {
	id := uuid.NewString()
	s := &Store{
		id:      id,
		state:   initial,
		effects: effects,
		actions: make(chan Action, 64),
		done:    make(chan struct{}),
		subs:    make(map[int]Subscriber),
		logger:  logger.With("session_id", id),
	}
	// Released when Start returns.
	s.wg.Add(1)
	return s
}

// ID returns the session id.
func (s *Store) ID() string {
	return s.id
}

// Start runs the action loop until ctx is cancelled or Close is called.
// It must be called exactly once, in a goroutine.
func (s *Store) Start(ctx context.Context) {
	defer s.wg.Done()

	s.logger.Debug("collection store started")

	for {
		select {
		case a := <-s.actions:
			select {
			case <-s.done:
				return
			default:
			}
			s.apply(a)
		case <-ctx.Done():
			s.Close()
			return
		case <-s.done:
			return
		}
	}
}

// Dispatch enqueues an action. It reports false when the session has ended,
// in which case the action is dropped.
func (s *Store) Dispatch(a Action) bool {
	select {
	case <-s.done:
		s.logger.Debug("action dropped after session end", "action", ActionName(a))
		return false
	default:
	}

	select {
	case s.actions <- a:
		return true
	case <-s.done:
		s.logger.Debug("action dropped after session end", "action", ActionName(a))
		return false
	}
}

// State returns the latest published state.
func (s *Store) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Subscribe registers fn and immediately delivers the current state to it.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.publishMu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn
	fn(s.State())
	s.publishMu.Unlock()

	return func() {
		s.publishMu.Lock()
		delete(s.subs, key)
		s.publishMu.Unlock()
	}
}

// Close ends the session. Pending and future actions are dropped.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.logger.Debug("collection store closed")
	})
}

// Done is closed when the session ends.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until Start has returned.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) apply(a Action) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	// Only the loop writes state, so reading it here needs no lock.
	next, effects := Reduce(s.state, a)
	next.Revision = s.state.Revision + 1

	s.logger.Debug("action reduced", "action", ActionName(a), "effects", len(effects))

	if s.effects != nil {
		for _, e := range effects {
			s.effects.Handle(e)
		}
	}

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()

	for _, fn := range s.subs {
		fn(next)
	}
}
