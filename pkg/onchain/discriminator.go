package onchain

import "crypto/sha256"

const discriminatorSize = 8

// Account discriminators are the first 8 bytes of sha256("account:<TypeName>"),
// prefixed onto every on-chain account so a bulk `getProgramAccounts` scan
// (C6) can filter by account type via a memcmp filter at offset 0, the same
// shape doublezero's revdist program uses for its own accounts.
var (
	DiscriminatorDistributor = sha256First8("account:MerkleDistributor")
	DiscriminatorClaimStatus = sha256First8("account:ClaimStatus")
)

func sha256First8(s string) [8]byte {
	h := sha256.Sum256([]byte(s))
	var disc [8]byte
	copy(disc[:], h[:8])
	return disc
}
