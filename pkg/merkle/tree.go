package merkle

import "fmt"

// ProofNode is one step of a proof: the sibling hash at that level and
// whether the sibling sits to the right of the running hash (OnRight=true)
// or to the left (OnRight=false).
type ProofNode struct {
	Sibling [32]byte
	OnRight bool
}

// Proof is an ordered sequence of sibling hashes from leaf to root.
type Proof []ProofNode

// Tree is a canonical binary Merkle tree built over an ordered sequence of
// leaves. Leaf order is authoritative — the tree never sorts its input.
//
// Odd-sized levels promote the trailing hash unchanged to the next level
// rather than duplicating it; this is the policy spec.md §4.2 mandates and
// must match the on-chain verifier exactly.
type Tree struct {
	leaves []Leaf
	levels [][][32]byte // levels[0] = leaf hashes, levels[last] = [root]
}

// New builds a tree over leaves in the given order. It does not validate
// leaf uniqueness — that is the shard manager's responsibility (C3).
func New(leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("merkle: cannot build a tree with zero leaves")
	}

	level := make([][32]byte, len(leaves))
	for i, l := range leaves {
		level[i] = HashLeaf(l)
	}

	levels := [][][32]byte{level}
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		i := 0
		for ; i+1 < len(level); i += 2 {
			next = append(next, HashInternal(level[i], level[i+1]))
		}
		if i < len(level) {
			// Odd trailing element: promote unchanged, do not duplicate.
			next = append(next, level[i])
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{leaves: leaves, levels: levels}, nil
}

// Root returns the tree's root hash.
func (t *Tree) Root() [32]byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Len returns the number of leaves in the tree.
func (t *Tree) Len() int { return len(t.leaves) }

// Proof returns the inclusion proof for the leaf at index i.
func (t *Tree) Proof(i int) (Proof, error) {
	if i < 0 || i >= len(t.leaves) {
		return nil, fmt.Errorf("merkle: leaf index %d out of range [0, %d)", i, len(t.leaves))
	}

	var proof Proof
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		// The element was promoted unchanged (no sibling at this level).
		if idx == len(nodes)-1 && len(nodes)%2 == 1 {
			idx = idx / 2
			continue
		}
		if idx%2 == 0 {
			proof = append(proof, ProofNode{Sibling: nodes[idx+1], OnRight: true})
		} else {
			proof = append(proof, ProofNode{Sibling: nodes[idx-1], OnRight: false})
		}
		idx = idx / 2
	}
	return proof, nil
}
