package merkle

// Verify reconstructs a root from leaf and proof by combining the running
// hash with each sibling in the flagged order and applying the
// internal-node hash, then compares the result to root.
func Verify(leaf Leaf, proof Proof, root [32]byte) bool {
	running := HashLeaf(leaf)
	for _, node := range proof {
		if node.OnRight {
			running = HashInternal(running, node.Sibling)
		} else {
			running = HashInternal(node.Sibling, running)
		}
	}
	return running == root
}
