package shard

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/merkle-distributor/pkg/merkle"
)

func TestShard_Artifact_WriteAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	leaves := []merkle.Leaf{
		{Claimant: keyAt(1), UnlockedAmount: 1_000, LockedAmount: 9_000},
		{Claimant: keyAt(2), UnlockedAmount: 2_000, LockedAmount: 8_000},
		{Claimant: keyAt(3), UnlockedAmount: 3_000, LockedAmount: 7_000},
	}
	artifacts, err := Build(leaves, 10)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	dir := t.TempDir()
	path, err := WriteArtifact(dir, artifacts[0])
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "shard-0.json"), path)

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)
	require.Equal(t, artifacts[0].MerkleRoot, loaded.MerkleRoot)
	require.Equal(t, artifacts[0].MaxTotalClaim, loaded.MaxTotalClaim)
	require.Len(t, loaded.TreeNodes, 3)

	for i, n := range loaded.TreeNodes {
		leaf, err := n.ToLeaf()
		require.NoError(t, err)
		require.Equal(t, leaves[i].Claimant, leaf.Claimant)
		require.True(t, merkle.Verify(leaf, n.ToMerkleProof(), loaded.MerkleRoot))
	}
}
