package shard

import (
	"fmt"

	"github.com/malbeclabs/merkle-distributor/pkg/merkle"
)

// DefaultMaxShardSize is the default shard size bound (12,000 leaves per
// spec.md §4.3), chosen so a leaf's proof depth stays within ⌈log₂ N⌉ ≈ 14
// levels.
const DefaultMaxShardSize = 12_000

// Build partitions leaves into ⌈len(leaves)/maxShardSize⌉ contiguous,
// input-order shards, rejecting any claimant_id that appears more than
// once across the entire input (a claimant may appear in exactly one
// shard). For each shard it builds the Merkle tree and returns the
// resulting artifact, still in memory (not yet written to disk).
func Build(leaves []merkle.Leaf, maxShardSize int) ([]*Artifact, error) {
	if maxShardSize <= 0 {
		return nil, fmt.Errorf("shard: maxShardSize must be positive, got %d", maxShardSize)
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("shard: cannot build shards from zero leaves")
	}

	if err := rejectDuplicates(leaves); err != nil {
		return nil, err
	}

	var artifacts []*Artifact
	for start, idx := 0, 0; start < len(leaves); start, idx = start+maxShardSize, idx+1 {
		end := min(start+maxShardSize, len(leaves))
		chunk := leaves[start:end]

		artifact, err := buildOne(idx, chunk)
		if err != nil {
			return nil, fmt.Errorf("shard: failed to build shard %d: %w", idx, err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

func buildOne(index int, leaves []merkle.Leaf) (*Artifact, error) {
	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, err
	}

	var maxTotalClaim uint64
	nodes := make([]TreeNode, len(leaves))
	for i, l := range leaves {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, err
		}
		nodes[i] = encodeTreeNode(l, proof)
		maxTotalClaim += l.UnlockedAmount + l.LockedAmount
	}

	return &Artifact{
		ShardIndex:    index,
		MerkleRoot:    tree.Root(),
		MaxNumNodes:   uint64(len(leaves)),
		MaxTotalClaim: maxTotalClaim,
		TreeNodes:     nodes,
	}, nil
}

func rejectDuplicates(leaves []merkle.Leaf) error {
	seen := make(map[[32]byte]int, len(leaves))
	for i, l := range leaves {
		key := [32]byte(l.Claimant)
		if first, ok := seen[key]; ok {
			return fmt.Errorf("shard: duplicate claimant %s at rows %d and %d", l.Claimant.String(), first, i)
		}
		seen[key] = i
	}
	return nil
}
