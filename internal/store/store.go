package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Action is a unit of asynchronous work dispatched through the store.
type Action struct {
	ID   string
	Type string
}

// ActionFunc is the body of an action. It may commit mutations on s.
type ActionFunc func(ctx context.Context, s *Store) error

// MutationSubscriber observes every committed mutation with the resulting state.
type MutationSubscriber func(m Mutation, state State)

// ActionSubscriber observes settled actions.
type ActionSubscriber struct {
	After func(a Action, state State)
	Error func(a Action, state State, err error)
}

// Store serializes mutations through a reducer and notifies subscribers
// synchronously, in registration order, after the state has been updated.
type Store struct {
	l       *zap.Logger
	reducer Reducer

	mu    sync.RWMutex
	state State

	subsMu     sync.RWMutex
	subs       []MutationSubscriber
	actionSubs []ActionSubscriber
}

// New creates store with initial state. A nil reducer means Reduce.
func New(l *zap.Logger, initial State, reducer Reducer) *Store {
	if reducer == nil {
		reducer = Reduce
	}

	return &Store{
		l:       l,
		reducer: reducer,
		state:   initial,
	}
}

// State returns the current state. Slices and maps are shared with the store
// and must be treated as read-only.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// ReplaceState swaps the whole state without notifying subscribers.
func (s *Store) ReplaceState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Commit applies m and notifies mutation subscribers.
func (s *Store) Commit(m Mutation) error {
	s.mu.Lock()
	next, err := s.reducer(s.state, m)
	if err != nil {
		s.mu.Unlock()
		return errors.Wrapf(err, "commit %s", m.Type)
	}
	s.state = next
	s.mu.Unlock()

	s.subsMu.RLock()
	subs := append([]MutationSubscriber(nil), s.subs...)
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(m, next)
	}

	return nil
}

// Dispatch runs fn as action name and notifies action subscribers once it settles.
func (s *Store) Dispatch(ctx context.Context, name string, fn ActionFunc) error {
	a := Action{ID: uuid.NewString(), Type: name}

	err := fn(ctx, s)

	s.subsMu.RLock()
	subs := append([]ActionSubscriber(nil), s.actionSubs...)
	s.subsMu.RUnlock()

	state := s.State()
	if err != nil {
		s.l.Debug("action failed",
			zap.String("action", a.Type),
			zap.String("id", a.ID),
			zap.Error(err))

		for _, sub := range subs {
			if sub.Error != nil {
				sub.Error(a, state, err)
			}
		}

		return errors.Wrapf(err, "action %s", name)
	}

	for _, sub := range subs {
		if sub.After != nil {
			sub.After(a, state)
		}
	}

	return nil
}

// Subscribe registers a mutation subscriber.
func (s *Store) Subscribe(fn MutationSubscriber) {
	s.subsMu.Lock()
	s.subs = append(s.subs, fn)
	s.subsMu.Unlock()
}

// SubscribeAction registers an action subscriber.
func (s *Store) SubscribeAction(sub ActionSubscriber) {
	s.subsMu.Lock()
	s.actionSubs = append(s.actionSubs, sub)
	s.subsMu.Unlock()
}
