package proofcache

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/merkle-distributor/internal/testutil"
	"github.com/malbeclabs/merkle-distributor/pkg/merkle"
	"github.com/malbeclabs/merkle-distributor/pkg/shard"
)

type fakeLoader struct {
	artifacts []*shard.Artifact
	calls     int
}

func (l *fakeLoader) LoadShards(ctx context.Context) ([]*shard.Artifact, error) {
	l.calls++
	return l.artifacts, nil
}

func buildTestArtifacts(t *testing.T) []*shard.Artifact {
	t.Helper()
	var leaves []merkle.Leaf
	for i := byte(1); i <= 5; i++ {
		var pk [32]byte
		pk[31] = i
		leaves = append(leaves, merkle.Leaf{UnlockedAmount: uint64(i) * 100, LockedAmount: 0, Claimant: solana.PublicKey(pk)})
	}
	artifacts, err := shard.Build(leaves, 3)
	require.NoError(t, err)
	return artifacts
}

func TestProofCache_View_RefreshIndexesAllClaimants(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{artifacts: buildTestArtifacts(t)}
	v, err := NewView(Config{
		Logger:          testutil.NewLogger(),
		Clock:           clockwork.NewFakeClock(),
		Loader:          loader,
		RefreshInterval: time.Hour,
	})
	require.NoError(t, err)
	require.False(t, v.Ready())

	require.NoError(t, v.Refresh(context.Background()))
	require.True(t, v.Ready())
	require.Equal(t, 5, v.Len())

	var pk [32]byte
	pk[31] = 3
	entry, ok := v.Lookup(solana.PublicKey(pk))
	require.True(t, ok)
	require.Equal(t, uint64(300), entry.Node.AmountUnlocked)
}

func TestProofCache_View_WaitReadyUnblocksAfterFirstRefresh(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{artifacts: buildTestArtifacts(t)}
	v, err := NewView(Config{
		Logger:          testutil.NewLogger(),
		Clock:           clockwork.NewFakeClock(),
		Loader:          loader,
		RefreshInterval: time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v.Start(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	require.NoError(t, v.WaitReady(waitCtx))
}

func TestProofCache_View_LookupMissReportsFalse(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{artifacts: buildTestArtifacts(t)}
	v, err := NewView(Config{
		Logger:          testutil.NewLogger(),
		Clock:           clockwork.NewFakeClock(),
		Loader:          loader,
		RefreshInterval: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, v.Refresh(context.Background()))

	var pk [32]byte
	pk[31] = 250
	_, ok := v.Lookup(solana.PublicKey(pk))
	require.False(t, ok)
}
