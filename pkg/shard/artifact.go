package shard

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/malbeclabs/merkle-distributor/pkg/merkle"
)

// ProofNode mirrors merkle.ProofNode in the JSON artifact: the sibling
// hash plus the left/right flag. The internal-node hash is
// H(0x01 ‖ left ‖ right), non-commutative, so the flag travels with the
// proof — the verifier has no independent way to recover leaf position.
type ProofNode struct {
	Sibling [32]byte `json:"sibling"`
	OnRight bool     `json:"on_right"`
}

// TreeNode is a single leaf plus its proof, as it appears in the JSON
// artifact spec.md §6 specifies.
type TreeNode struct {
	Claimant       string      `json:"claimant"` // base58
	AmountUnlocked uint64      `json:"amount_unlocked"`
	AmountLocked   uint64      `json:"amount_locked"`
	Proof          []ProofNode `json:"proof"`
}

// Artifact is one shard's self-describing, persisted Merkle commitment:
// its root and every leaf's proof, plus the metadata needed to create the
// on-chain distributor for this shard.
type Artifact struct {
	ShardIndex    int        `json:"shard_index"`
	MerkleRoot    [32]byte   `json:"merkle_root"`
	MaxNumNodes   uint64     `json:"max_num_nodes"`
	MaxTotalClaim uint64     `json:"max_total_claim"`
	TreeNodes     []TreeNode `json:"tree_nodes"`
}

// WriteArtifact persists a shard artifact as JSON at <dir>/shard-<index>.json.
func WriteArtifact(dir string, a *Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("shard: failed to create output directory %q: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("shard-%d.json", a.ShardIndex))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("shard: failed to create artifact file %q: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return "", fmt.Errorf("shard: failed to encode artifact: %w", err)
	}
	return path, nil
}

// LoadArtifact reads a shard artifact from disk.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shard: failed to open artifact file %q: %w", path, err)
	}
	defer f.Close()
	return DecodeArtifact(f)
}

// DecodeArtifact decodes a shard artifact from an arbitrary reader.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("shard: failed to decode artifact: %w", err)
	}
	return &a, nil
}

func encodeTreeNode(leaf merkle.Leaf, proof merkle.Proof) TreeNode {
	nodes := make([]ProofNode, len(proof))
	for i, n := range proof {
		nodes[i] = ProofNode{Sibling: n.Sibling, OnRight: n.OnRight}
	}
	return TreeNode{
		Claimant:       base58.Encode(leaf.Claimant[:]),
		AmountUnlocked: leaf.UnlockedAmount,
		AmountLocked:   leaf.LockedAmount,
		Proof:          nodes,
	}
}

// ToMerkleProof converts the JSON representation back into merkle.Proof.
func (n TreeNode) ToMerkleProof() merkle.Proof {
	proof := make(merkle.Proof, len(n.Proof))
	for i, p := range n.Proof {
		proof[i] = merkle.ProofNode{Sibling: p.Sibling, OnRight: p.OnRight}
	}
	return proof
}

// ToLeaf decodes the base58 claimant back into a merkle.Leaf.
func (n TreeNode) ToLeaf() (merkle.Leaf, error) {
	raw, err := base58.Decode(n.Claimant)
	if err != nil {
		return merkle.Leaf{}, fmt.Errorf("shard: invalid base58 claimant %q: %w", n.Claimant, err)
	}
	if len(raw) != 32 {
		return merkle.Leaf{}, fmt.Errorf("shard: claimant %q decodes to %d bytes, want 32", n.Claimant, len(raw))
	}
	var pk solana.PublicKey
	copy(pk[:], raw)
	return merkle.Leaf{Claimant: pk, UnlockedAmount: n.AmountUnlocked, LockedAmount: n.AmountLocked}, nil
}
