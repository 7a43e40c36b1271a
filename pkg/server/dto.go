package server

import (
	"github.com/malbeclabs/merkle-distributor/pkg/onchain"
	"github.com/malbeclabs/merkle-distributor/pkg/shard"
)

type DistributorDTO struct {
	Address          string `json:"address"`
	Version          uint64 `json:"version"`
	Mint             string `json:"mint"`
	Vault            string `json:"vault"`
	MaxTotalClaim    uint64 `json:"max_total_claim"`
	MaxNumNodes      uint64 `json:"max_num_nodes"`
	TotalClaimed     uint64 `json:"total_claimed"`
	TotalForgone     uint64 `json:"total_forgone"`
	NodesClaimed     uint64 `json:"nodes_claimed"`
	StartTs          int64  `json:"start_ts"`
	EndTs            int64  `json:"end_ts"`
	ClawbackStartTs  int64  `json:"clawback_start_ts"`
	EnableTs         int64  `json:"enable_ts"`
	ClawbackReceiver string `json:"clawback_receiver"`
	Admin            string `json:"admin"`
	ClawedBack       bool   `json:"clawed_back"`
	Closable         bool   `json:"closable"`
	State            string `json:"state"`
}

func newDistributorDTO(addr string, d *onchain.Distributor, now int64) DistributorDTO {
	return DistributorDTO{
		Address:          addr,
		Version:          d.Version,
		Mint:             d.Mint.String(),
		Vault:            d.Vault.String(),
		MaxTotalClaim:    d.MaxTotalClaim,
		MaxNumNodes:      d.MaxNumNodes,
		TotalClaimed:     d.TotalClaimed,
		TotalForgone:     d.TotalForgone,
		NodesClaimed:     d.NodesClaimed,
		StartTs:          d.StartTs,
		EndTs:            d.EndTs,
		ClawbackStartTs:  d.ClawbackStartTs,
		EnableTs:         d.EnableTs,
		ClawbackReceiver: d.ClawbackReceiver.String(),
		Admin:            d.Admin.String(),
		ClawedBack:       d.ClawedBack,
		Closable:         d.Closable,
		State:            d.State(now).String(),
	}
}

// UserResponse answers GET /user/:id. MerkleTree identifies which shard
// the claimant's proof belongs to, so a client can locate the matching
// shard artifact if it wants to verify the proof itself offline.
type UserResponse struct {
	MerkleTree     int               `json:"merkle_tree"`
	Proof          []shard.ProofNode `json:"proof"`
	UnlockedAmount uint64            `json:"unlocked_amount"`
	LockedAmount   uint64            `json:"locked_amount"`
}

// ClaimResponse answers GET /claim/:id from the eventually-consistent
// claim cache.
type ClaimResponse struct {
	Claimant              string `json:"claimant"`
	LockedAmount          uint64 `json:"locked_amount"`
	LockedAmountWithdrawn uint64 `json:"locked_amount_withdrawn"`
	UnlockedAmount        uint64 `json:"unlocked_amount"`
	UnlockedAmountClaimed uint64 `json:"unlocked_amount_claimed"`
	Closable              bool   `json:"closable"`
	State                 string `json:"state"`
	Consistency           string `json:"consistency"`
}

func newClaimResponse(c *onchain.ClaimStatus) ClaimResponse {
	return ClaimResponse{
		Claimant:              c.Claimant.String(),
		LockedAmount:          c.LockedAmount,
		LockedAmountWithdrawn: c.LockedAmountWithdrawn,
		UnlockedAmount:        c.UnlockedAmount,
		UnlockedAmountClaimed: c.UnlockedAmountClaimed,
		Closable:              c.Closable,
		State:                 c.State().String(),
		Consistency:           "eventual",
	}
}

// EligibilityResponse answers GET /eligibility/:id: the composite view
// combining the claimant's proof with their current claim progress.
type EligibilityResponse struct {
	MerkleTree    int               `json:"merkle_tree"`
	Proof         []shard.ProofNode `json:"proof"`
	ClaimedAmount uint64            `json:"claimed_amount"`
	StartTs       int64             `json:"start_ts"`
	EndTs         int64             `json:"end_ts"`
	StartAmount   uint64            `json:"start_amount"`
	EndAmount     uint64            `json:"end_amount"`
	// PctVested is the locked amount's vested fraction as of now, 0 when
	// EndAmount's locked portion is zero — an unvested-display convenience
	// for clients, not used in any claim-amount calculation.
	PctVested   float64 `json:"pct_vested"`
	Consistency string  `json:"consistency"`
}
