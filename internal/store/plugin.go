package store

import (
	"encoding/json"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

// DefaultStateKey is the key the persisted slice is stored under.
const DefaultStateKey = "state"

// PersistencePlugin restores the persisted slice at startup, writes it after
// whitelisted mutations and resets the app state after whitelisted actions.
type PersistencePlugin struct {
	l          *zap.Logger
	kv         domain.KeyValueStore
	key        string
	persistSet map[string]struct{}
	busySet    map[string]struct{}
}

// NewPersistencePlugin creates plugin. Nil whitelists fall back to the defaults.
func NewPersistencePlugin(l *zap.Logger, kv domain.KeyValueStore, persistMutations, busyActions []string) *PersistencePlugin {
	if persistMutations == nil {
		persistMutations = DefaultPersistMutations
	}
	if busyActions == nil {
		busyActions = DefaultBusyActions
	}

	return &PersistencePlugin{
		l:          l,
		kv:         kv,
		key:        DefaultStateKey,
		persistSet: toSet(persistMutations),
		busySet:    toSet(busyActions),
	}
}

// Install must run before any other subscriber is registered on s.
func (p *PersistencePlugin) Install(s *Store) error {
	if err := p.restore(s); err != nil {
		return err
	}

	s.Subscribe(p.onMutation)
	s.SubscribeAction(ActionSubscriber{
		After: func(a Action, _ State) {
			p.resetBusy(s, a)
		},
		Error: func(a Action, _ State, _ error) {
			p.resetBusy(s, a)
		},
	})

	return nil
}

func (p *PersistencePlugin) restore(s *Store) error {
	raw, err := p.kv.Get(p.key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil
		}
		return errors.Wrap(err, "load persisted state")
	}

	var persisted PersistedState
	if err := json.Unmarshal(raw, &persisted); err != nil {
		p.l.Warn("persisted state is corrupted, starting from defaults", zap.Error(err))
		return nil
	}

	merged, err := MergePersisted(s.State(), persisted)
	if err != nil {
		return err
	}
	s.ReplaceState(merged)

	return nil
}

// MergePersisted deep-merges persisted over base. Persisted leaves win when set.
// base is left untouched.
func MergePersisted(base State, persisted PersistedState) (State, error) {
	merged := base.clonePersisted()
	if err := mergo.Merge(&merged, persisted.toState(), mergo.WithOverride); err != nil {
		return base, errors.Wrap(err, "merge persisted state")
	}

	return merged, nil
}

func (p *PersistencePlugin) onMutation(m Mutation, state State) {
	if _, ok := p.persistSet[m.Type]; !ok {
		return
	}

	payload, err := json.Marshal(state.Persisted())
	if err != nil {
		p.l.Error("failed to encode persisted state", zap.String("mutation", m.Type), zap.Error(err))
		return
	}

	if err := p.kv.Set(p.key, payload); err != nil {
		p.l.Error("failed to persist state", zap.String("mutation", m.Type), zap.Error(err))
	}
}

func (p *PersistencePlugin) resetBusy(s *Store, a Action) {
	if _, ok := p.busySet[a.Type]; !ok {
		return
	}

	if err := s.Commit(Mutation{Type: MutationSetAppState, Payload: domain.AppStateIdle}); err != nil {
		p.l.Error("failed to reset app state", zap.String("action", a.Type), zap.Error(err))
	}
}
