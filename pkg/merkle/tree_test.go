package merkle

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func testLeaf(i byte) Leaf {
	var pk solana.PublicKey
	pk[0] = i
	pk[31] = i
	return Leaf{Claimant: pk, UnlockedAmount: uint64(i) * 100, LockedAmount: uint64(i) * 900}
}

func TestMerkle_Tree_RoundTrip_Sizes(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 16, 17, 100, 4096, 16384} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			t.Parallel()

			leaves := make([]Leaf, n)
			for i := 0; i < n; i++ {
				leaves[i] = testLeaf(byte(i % 251))
			}

			tree, err := New(leaves)
			require.NoError(t, err)
			require.Equal(t, n, tree.Len())

			root := tree.Root()
			for i := 0; i < n; i++ {
				proof, err := tree.Proof(i)
				require.NoError(t, err)
				require.True(t, Verify(leaves[i], proof, root), "leaf %d failed to verify", i)
			}
		})
	}
}

func TestMerkle_Tree_New_RejectsEmpty(t *testing.T) {
	t.Parallel()
	tree, err := New(nil)
	require.Error(t, err)
	require.Nil(t, tree)
}

func TestMerkle_Tree_Proof_OutOfRange(t *testing.T) {
	t.Parallel()
	tree, err := New([]Leaf{testLeaf(1)})
	require.NoError(t, err)

	_, err = tree.Proof(-1)
	require.Error(t, err)
	_, err = tree.Proof(1)
	require.Error(t, err)
}

func TestMerkle_Verify_RejectsWrongLeaf(t *testing.T) {
	t.Parallel()

	leaves := []Leaf{testLeaf(1), testLeaf(2), testLeaf(3)}
	tree, err := New(leaves)
	require.NoError(t, err)

	root := tree.Root()
	proof, err := tree.Proof(0)
	require.NoError(t, err)

	require.True(t, Verify(leaves[0], proof, root))

	tampered := leaves[0]
	tampered.UnlockedAmount++
	require.False(t, Verify(tampered, proof, root))
}

func TestMerkle_Verify_RejectsSwappedSibling(t *testing.T) {
	t.Parallel()

	leaves := make([]Leaf, 8)
	for i := range leaves {
		leaves[i] = testLeaf(byte(i + 1))
	}
	tree, err := New(leaves)
	require.NoError(t, err)
	root := tree.Root()

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	require.True(t, Verify(leaves[0], proof, root))

	// Corrupt the first sibling hash; verification must fail.
	corrupted := make(Proof, len(proof))
	copy(corrupted, proof)
	corrupted[0].Sibling[0] ^= 0xFF
	require.False(t, Verify(leaves[0], corrupted, root))

	// Flipping the left/right flag must also change the result.
	flipped := make(Proof, len(proof))
	copy(flipped, proof)
	flipped[0].OnRight = !flipped[0].OnRight
	require.False(t, Verify(leaves[0], flipped, root))
}

func TestMerkle_Tree_OddLevelsPromoteTrailingHashUnchanged(t *testing.T) {
	t.Parallel()

	leaves := []Leaf{testLeaf(1), testLeaf(2), testLeaf(3)}
	tree, err := New(leaves)
	require.NoError(t, err)

	// level0: h0,h1,h2 -> level1: H(h0,h1), h2 (promoted) -> root: H(H(h0,h1), h2)
	h0 := HashLeaf(leaves[0])
	h1 := HashLeaf(leaves[1])
	h2 := HashLeaf(leaves[2])
	expectedRoot := HashInternal(HashInternal(h0, h1), h2)
	require.Equal(t, expectedRoot, tree.Root())
}

func TestMerkle_HashLeaf_DomainSeparatedFromInternal(t *testing.T) {
	t.Parallel()

	l := testLeaf(5)
	leafHash := HashLeaf(l)
	// An internal node combining the same 32 bytes twice must never collide
	// with a leaf hash of those same 32 bytes reinterpreted, by construction
	// of the domain-separation prefix.
	internalHash := HashInternal(leafHash, leafHash)
	require.NotEqual(t, leafHash, internalHash)
}
