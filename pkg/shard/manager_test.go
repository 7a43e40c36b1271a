package shard

import (
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/merkle-distributor/pkg/merkle"
)

func keyAt(i byte) solana.PublicKey {
	var pk solana.PublicKey
	pk[31] = i
	return pk
}

func TestShard_Build_PartitionsInInputOrder(t *testing.T) {
	t.Parallel()

	leaves := make([]merkle.Leaf, 25)
	for i := range leaves {
		leaves[i] = merkle.Leaf{Claimant: keyAt(byte(i + 1)), UnlockedAmount: uint64(i), LockedAmount: uint64(i) * 9}
	}

	artifacts, err := Build(leaves, 10)
	require.NoError(t, err)
	require.Len(t, artifacts, 3)
	require.Len(t, artifacts[0].TreeNodes, 10)
	require.Len(t, artifacts[1].TreeNodes, 10)
	require.Len(t, artifacts[2].TreeNodes, 5)

	require.Equal(t, 0, artifacts[0].ShardIndex)
	require.Equal(t, 1, artifacts[1].ShardIndex)
	require.Equal(t, 2, artifacts[2].ShardIndex)

	// Every leaf's proof must verify against its own shard's root.
	for _, a := range artifacts {
		for _, n := range a.TreeNodes {
			leaf, err := n.ToLeaf()
			require.NoError(t, err)
			require.True(t, merkle.Verify(leaf, n.ToMerkleProof(), a.MerkleRoot))
		}
	}
}

func TestShard_Build_RejectsDuplicateClaimants(t *testing.T) {
	t.Parallel()

	dup := keyAt(7)
	leaves := []merkle.Leaf{
		{Claimant: keyAt(1), UnlockedAmount: 1},
		{Claimant: dup, UnlockedAmount: 2},
		{Claimant: keyAt(3), UnlockedAmount: 3},
		{Claimant: dup, UnlockedAmount: 4},
	}

	artifacts, err := Build(leaves, 10)
	require.Error(t, err)
	require.Nil(t, artifacts)
	require.Contains(t, err.Error(), "duplicate claimant")
}

func TestShard_Build_RejectsEmptyInput(t *testing.T) {
	t.Parallel()
	artifacts, err := Build(nil, 10)
	require.Error(t, err)
	require.Nil(t, artifacts)
}

func TestShard_Build_RejectsNonPositiveMaxShardSize(t *testing.T) {
	t.Parallel()
	artifacts, err := Build([]merkle.Leaf{{Claimant: keyAt(1), UnlockedAmount: 1}}, 0)
	require.Error(t, err)
	require.Nil(t, artifacts)
}

func TestShard_Build_MaxTotalClaimSumsUnlockedAndLocked(t *testing.T) {
	t.Parallel()

	leaves := []merkle.Leaf{
		{Claimant: keyAt(1), UnlockedAmount: 1_000, LockedAmount: 9_000},
		{Claimant: keyAt(2), UnlockedAmount: 500, LockedAmount: 4_500},
	}
	artifacts, err := Build(leaves, 10)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	require.Equal(t, uint64(15_000), artifacts[0].MaxTotalClaim)
	require.Equal(t, uint64(2), artifacts[0].MaxNumNodes)
}

func TestShard_ParseCSV_OptionalLockedColumn(t *testing.T) {
	t.Parallel()

	pk := keyAt(9)
	csvData := "pubkey,unlocked,locked\n" + pk.String() + ",1000,\n"
	leaves, err := ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	require.Equal(t, uint64(1000), leaves[0].UnlockedAmount)
	require.Equal(t, uint64(0), leaves[0].LockedAmount)
}

func TestShard_ParseCSV_MissingLockedColumnEntirely(t *testing.T) {
	t.Parallel()

	pk := keyAt(9)
	csvData := "pubkey,unlocked\n" + pk.String() + ",1000\n"
	leaves, err := ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	require.Equal(t, uint64(0), leaves[0].LockedAmount)
}

func TestShard_ParseCSV_RejectsInvalidHeader(t *testing.T) {
	t.Parallel()
	_, err := ParseCSV(strings.NewReader("wallet,unlocked\nfoo,1\n"))
	require.Error(t, err)
}

func TestShard_ParseCSV_RejectsInvalidPubkey(t *testing.T) {
	t.Parallel()
	_, err := ParseCSV(strings.NewReader("pubkey,unlocked,locked\nnot-a-pubkey,1,0\n"))
	require.Error(t, err)
}
