package onchain

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	seedDistributor = []byte("MerkleDistributor")
	seedClaimStatus = []byte("ClaimStatus")
)

// DeriveDistributorPDA derives the distributor address for (mint, version),
// seeds ("MerkleDistributor", mint, version_le_bytes) per spec.md §6.
func DeriveDistributorPDA(programID, mint solana.PublicKey, version uint64) (solana.PublicKey, uint8, error) {
	versionBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(versionBytes, version)
	return solana.FindProgramAddress([][]byte{seedDistributor, mint.Bytes(), versionBytes}, programID)
}

// DeriveClaimStatusPDA derives the claim-status address for (claimant,
// distributor), seeds ("ClaimStatus", claimant, distributor) per spec.md §6.
func DeriveClaimStatusPDA(programID, claimant, distributor solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedClaimStatus, claimant.Bytes(), distributor.Bytes()}, programID)
}
