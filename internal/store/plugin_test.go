package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

type memoryKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes int
	setErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}}
}

func (m *memoryKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return v, nil
}

func (m *memoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setErr != nil {
		return m.setErr
	}
	m.writes++
	m.data[key] = value
	return nil
}

func (m *memoryKV) Close() error { return nil }

func installed(t *testing.T, kv *memoryKV) *Store {
	t.Helper()

	s := New(zap.NewNop(), DefaultState(), nil)
	require.NoError(t, NewPersistencePlugin(zap.NewNop(), kv, nil, nil).Install(s))
	return s
}

func TestPersistencePlugin_RestoreDeepMergesOverDefaults(t *testing.T) {
	kv := newMemoryKV()
	kv.data[DefaultStateKey] = []byte(`{"wallet":{"address":"` + testAddress + `"}}`)

	s := installed(t, kv)

	state := s.State()
	assert.Equal(t, testAddress, state.Wallet.Address)
	assert.NotNil(t, state.Wallet.Addresses)
	assert.Empty(t, state.Wallet.Addresses)
	assert.Equal(t, domain.AppStateIdle, state.App.State)
	assert.NotNil(t, state.Wallet.WalletOptions)
}

func TestPersistencePlugin_RestoreKeepsNonPersistedDefaults(t *testing.T) {
	kv := newMemoryKV()
	kv.data[DefaultStateKey] = []byte(`{"app":{"acceptHighPriceDeviations":true},"auction":{"auctionsViewed":[4,5]}}`)

	initial := DefaultState()
	initial.Derivatives.Markets = []domain.UiMarket{{Slug: "btc-usdt-perp"}}
	s := New(zap.NewNop(), initial, nil)
	require.NoError(t, NewPersistencePlugin(zap.NewNop(), kv, nil, nil).Install(s))

	state := s.State()
	assert.True(t, state.App.AcceptHighPriceDeviations)
	assert.Equal(t, []uint64{4, 5}, state.Auction.AuctionsViewed)
	require.Len(t, state.Derivatives.Markets, 1)
	assert.Equal(t, "btc-usdt-perp", state.Derivatives.Markets[0].Slug)
}

func TestMergePersisted_DoesNotWriteIntoBase(t *testing.T) {
	base := DefaultState()
	base.Wallet.WalletOptions["keep"] = "x"
	base.Auction.AuctionsViewed = []uint64{1}
	base.Account.Subaccount = &domain.Subaccount{SubaccountID: "0xsub"}

	var persisted PersistedState
	persisted.Wallet.WalletOptions = map[string]string{"persisted": "y"}
	persisted.Auction.AuctionsViewed = []uint64{7, 8}
	persisted.Account.Subaccount = &domain.Subaccount{SubaccountID: "0xother"}

	merged, err := MergePersisted(base, persisted)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"keep": "x", "persisted": "y"}, merged.Wallet.WalletOptions)
	assert.Equal(t, []uint64{7, 8}, merged.Auction.AuctionsViewed)
	assert.Equal(t, "0xother", merged.Account.Subaccount.SubaccountID)

	assert.Equal(t, map[string]string{"keep": "x"}, base.Wallet.WalletOptions)
	assert.Equal(t, []uint64{1}, base.Auction.AuctionsViewed)
	assert.Equal(t, "0xsub", base.Account.Subaccount.SubaccountID)
}

func TestPersistencePlugin_NoPersistedState(t *testing.T) {
	s := installed(t, newMemoryKV())
	assert.Equal(t, DefaultState(), s.State())
}

func TestPersistencePlugin_CorruptedStateIsIgnored(t *testing.T) {
	kv := newMemoryKV()
	kv.data[DefaultStateKey] = []byte(`{"wallet":`)

	s := installed(t, kv)
	assert.Equal(t, DefaultState(), s.State())
}

type failingKV struct{ memoryKV }

func (f *failingKV) Get(string) ([]byte, error) { return nil, errors.New("disk gone") }

func TestPersistencePlugin_RestoreReadError(t *testing.T) {
	s := New(zap.NewNop(), DefaultState(), nil)
	err := NewPersistencePlugin(zap.NewNop(), &failingKV{}, nil, nil).Install(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestPersistencePlugin_PersistsOnlyWhitelistedMutations(t *testing.T) {
	kv := newMemoryKV()
	s := installed(t, kv)

	require.NoError(t, s.Commit(Mutation{Type: MutationSetAppState, Payload: domain.AppStateBusy}))
	require.NoError(t, s.Commit(Mutation{Type: MutationSetSubaccountIDs, Payload: []string{"0xabc"}}))
	assert.Equal(t, 0, kv.writes)

	require.NoError(t, s.Commit(Mutation{Type: MutationSetAddress, Payload: testAddress}))
	assert.Equal(t, 1, kv.writes)

	var persisted PersistedState
	require.NoError(t, json.Unmarshal(kv.data[DefaultStateKey], &persisted))
	assert.Equal(t, testAddress, persisted.Wallet.Address)
	// the whole slice is written, including fields changed by non-whitelisted mutations
	assert.Equal(t, []string{"0xabc"}, persisted.Account.SubaccountIDs)
}

func TestPersistencePlugin_WriteFailureKeepsState(t *testing.T) {
	kv := newMemoryKV()
	s := installed(t, kv)
	kv.setErr = errors.New("read-only")

	require.NoError(t, s.Commit(Mutation{Type: MutationSetWallet, Payload: "keplr"}))
	assert.Equal(t, "keplr", s.State().Wallet.Wallet)
	assert.Empty(t, kv.data)
}

func TestPersistencePlugin_RoundTrip(t *testing.T) {
	kv := newMemoryKV()
	s := installed(t, kv)

	require.NoError(t, s.Commit(Mutation{Type: MutationSetWallet, Payload: "metamask"}))
	require.NoError(t, s.Commit(Mutation{Type: MutationSetAddresses, Payload: []string{testAddress}}))
	require.NoError(t, s.Commit(Mutation{Type: MutationAcceptHighPriceDeviations}))

	restored := installed(t, kv)
	state := restored.State()
	assert.Equal(t, "metamask", state.Wallet.Wallet)
	assert.Equal(t, []string{testAddress}, state.Wallet.Addresses)
	assert.True(t, state.App.AcceptHighPriceDeviations)
}

func TestPersistencePlugin_BusyReset(t *testing.T) {
	busy := func(ctx context.Context, s *Store) error {
		return s.Commit(Mutation{Type: MutationSetAppState, Payload: domain.AppStateBusy})
	}
	busyThenFail := func(ctx context.Context, s *Store) error {
		if err := busy(ctx, s); err != nil {
			return err
		}
		return errors.New("rejected by chain")
	}

	tests := []struct {
		name   string
		action string
		fn     ActionFunc
		want   domain.AppState
	}{
		{name: "whitelisted success", action: "derivatives/submitLimitOrder", fn: busy, want: domain.AppStateIdle},
		{name: "whitelisted error", action: "account/withdraw", fn: busyThenFail, want: domain.AppStateIdle},
		{name: "other action", action: "derivatives/fetchOrderbook", fn: busy, want: domain.AppStateBusy},
		{name: "other action error", action: "wallet/connect", fn: busyThenFail, want: domain.AppStateBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := installed(t, newMemoryKV())
			_ = s.Dispatch(context.Background(), tt.action, tt.fn)
			assert.Equal(t, tt.want, s.State().App.State)
		})
	}
}

func TestPersistencePlugin_CustomWhitelists(t *testing.T) {
	kv := newMemoryKV()
	s := New(zap.NewNop(), DefaultState(), nil)
	require.NoError(t, NewPersistencePlugin(zap.NewNop(), kv, []string{MutationSetSubaccountIDs}, []string{"custom/action"}).Install(s))

	require.NoError(t, s.Commit(Mutation{Type: MutationSetWallet, Payload: "keplr"}))
	assert.Equal(t, 0, kv.writes)
	require.NoError(t, s.Commit(Mutation{Type: MutationSetSubaccountIDs, Payload: []string{"0x1"}}))
	assert.Equal(t, 1, kv.writes)

	require.NoError(t, s.Dispatch(context.Background(), "custom/action", func(ctx context.Context, s *Store) error {
		return s.Commit(Mutation{Type: MutationSetAppState, Payload: domain.AppStateBusy})
	}))
	assert.Equal(t, domain.AppStateIdle, s.State().App.State)
}
