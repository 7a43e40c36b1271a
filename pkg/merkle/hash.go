// Package merkle builds canonical binary Merkle trees over distributor
// leaves and produces/verifies inclusion proofs against them.
package merkle

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

const (
	leafPrefix     byte = 0x00
	internalPrefix byte = 0x01
)

// Leaf is the authoritative (claimant, unlocked, locked) tuple committed
// under a shard's root.
type Leaf struct {
	Claimant       solana.PublicKey
	UnlockedAmount uint64
	LockedAmount   uint64
}

// Encode returns the canonical byte serialization of a leaf:
// claimant (32 bytes) ‖ unlocked_amount (8 bytes LE) ‖ locked_amount (8 bytes LE).
func (l Leaf) Encode() []byte {
	buf := make([]byte, 32+8+8)
	copy(buf[0:32], l.Claimant[:])
	binary.LittleEndian.PutUint64(buf[32:40], l.UnlockedAmount)
	binary.LittleEndian.PutUint64(buf[40:48], l.LockedAmount)
	return buf
}

// HashLeaf computes the domain-separated leaf hash H(0x00 ‖ encode(leaf)).
func HashLeaf(l Leaf) [32]byte {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(l.Encode())
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashInternal computes the domain-separated internal node hash
// H(0x01 ‖ left ‖ right). The domain byte prevents a leaf hash from ever
// being mistaken for an internal node hash (second-preimage resistance).
func HashInternal(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{internalPrefix})
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
