package claimcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/merkle-distributor/internal/testutil"
	"github.com/malbeclabs/merkle-distributor/pkg/onchain"
)

func claimant(b byte) solana.PublicKey {
	var pk solana.PublicKey
	pk[31] = b
	return pk
}

func encodeTestClaimStatus(t *testing.T, claimant solana.PublicKey, locked uint64) RawAccount {
	t.Helper()
	data, err := onchain.MarshalClaimStatus(&onchain.ClaimStatus{Claimant: claimant, LockedAmount: locked})
	require.NoError(t, err)
	return RawAccount{Pubkey: claimant, Data: data}
}

type fakeScanner struct {
	mu       sync.Mutex
	accounts []RawAccount
	calls    int
}

func (f *fakeScanner) ScanClaimStatuses(ctx context.Context, programID solana.PublicKey) ([]RawAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]RawAccount{}, f.accounts...), nil
}

func (f *fakeScanner) set(accounts []RawAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = accounts
}

type fakeSubscriber struct {
	ch chan RawAccount
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{ch: make(chan RawAccount, 16)}
}

func (f *fakeSubscriber) SubscribeClaimStatuses(ctx context.Context, programID solana.PublicKey) (<-chan RawAccount, func() error, error) {
	return f.ch, func() error { return nil }, nil
}

func TestClaimCache_Start_BecomesReadyAfterInitialScan(t *testing.T) {
	t.Parallel()

	scanner := &fakeScanner{accounts: []RawAccount{encodeTestClaimStatus(t, claimant(1), 100)}}
	sub := newFakeSubscriber()

	c, err := New(Config{
		Logger:     testutil.NewLogger(),
		Clock:      clockwork.NewFakeClock(),
		ProgramID:  claimant(99),
		Scanner:    scanner,
		Subscriber: sub,
	})
	require.NoError(t, err)
	require.False(t, c.Ready())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	require.True(t, c.Ready())

	cs, ok := c.Get(claimant(1))
	require.True(t, ok)
	require.Equal(t, uint64(100), cs.LockedAmount)

	_, ok = c.Get(claimant(2))
	require.False(t, ok)
}

func TestClaimCache_ApplyUpdate_OverwritesExistingEntry(t *testing.T) {
	t.Parallel()

	scanner := &fakeScanner{accounts: []RawAccount{encodeTestClaimStatus(t, claimant(1), 100)}}
	sub := newFakeSubscriber()

	c, err := New(Config{
		Logger:     testutil.NewLogger(),
		Clock:      clockwork.NewFakeClock(),
		ProgramID:  claimant(99),
		Scanner:    scanner,
		Subscriber: sub,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))

	sub.ch <- encodeTestClaimStatus(t, claimant(1), 500)

	require.Eventually(t, func() bool {
		cs, ok := c.Get(claimant(1))
		return ok && cs.LockedAmount == 500
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClaimCache_ReconnectsAndReconcilesAfterSubscriptionDrop(t *testing.T) {
	t.Parallel()

	scanner := &fakeScanner{accounts: []RawAccount{encodeTestClaimStatus(t, claimant(1), 100)}}
	sub := newFakeSubscriber()

	c, err := New(Config{
		Logger:     testutil.NewLogger(),
		Clock:      clockwork.NewFakeClock(),
		ProgramID:  claimant(99),
		Scanner:    scanner,
		Subscriber: sub,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))

	// Simulate the subscription dropping and a claimant appearing while
	// disconnected — the reconcile scan after resubscribe must pick it up.
	close(sub.ch)
	scanner.set([]RawAccount{
		encodeTestClaimStatus(t, claimant(1), 100),
		encodeTestClaimStatus(t, claimant(2), 250),
	})

	require.Eventually(t, func() bool {
		_, ok := c.Get(claimant(2))
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}
