package onchain

import "github.com/gagliardetto/solana-go"

// Distributor is the on-chain account governing one shard's distribution:
// its root, schedule, vault, and counters. Field order and fixed-width
// types mirror spec.md §6's byte layout exactly so a Borsh round-trip
// produces the same bytes the on-chain program would; the single 96-byte
// Reserved buffer preserves forward-compatible padding the way doublezero's
// revdist accounts reserve StorageGap fields.
type Distributor struct {
	Bump              uint8
	Version           uint64
	Root              [32]byte
	Mint              solana.PublicKey
	Vault             solana.PublicKey
	MaxTotalClaim     uint64
	MaxNumNodes       uint64
	TotalClaimed      uint64
	TotalForgone      uint64
	NodesClaimed      uint64
	StartTs           int64
	EndTs             int64
	ClawbackStartTs   int64
	ClawbackReceiver  solana.PublicKey
	Admin             solana.PublicKey
	ClawedBack        bool
	EnableTs          int64
	Closable          bool
	Reserved          [96]byte
}

// ClaimStatus is the on-chain account recording one (claimant, distributor)
// pair's claim progress.
type ClaimStatus struct {
	Claimant              solana.PublicKey
	LockedAmount          uint64
	LockedAmountWithdrawn uint64
	UnlockedAmount        uint64
	UnlockedAmountClaimed uint64
	Closable              bool
	// Admin caches the distributor's admin at claim-record creation time;
	// close_claim_status authorizes against this cached value, not the
	// distributor's current admin, so a later admin rotation does not hand
	// closure of existing (test-mode) records to the new admin.
	Admin solana.PublicKey
}

// DistributorState summarizes the time-driven lifecycle of a Distributor
// per spec.md §4.4's state machine summary.
type DistributorState int

const (
	StatePending DistributorState = iota
	StateActive
	StateExpired
	StateClawedBack
)

func (s DistributorState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateClawedBack:
		return "clawed_back"
	default:
		return "unknown"
	}
}

// State derives the distributor's current lifecycle state at time now.
func (d *Distributor) State(now int64) DistributorState {
	if d.ClawedBack {
		return StateClawedBack
	}
	if now < d.EnableTs {
		return StatePending
	}
	if now < d.ClawbackStartTs {
		return StateActive
	}
	return StateExpired
}

// ClaimRecordState summarizes a ClaimStatus's lifecycle per spec.md §4.4.
type ClaimRecordState int

const (
	ClaimOpened ClaimRecordState = iota
	ClaimFullyPaid
)

func (s ClaimRecordState) String() string {
	switch s {
	case ClaimOpened:
		return "opened"
	case ClaimFullyPaid:
		return "fully_paid"
	default:
		return "unknown"
	}
}

// State reports whether the locked portion has been fully withdrawn.
func (c *ClaimStatus) State() ClaimRecordState {
	if c.LockedAmountWithdrawn >= c.LockedAmount {
		return ClaimFullyPaid
	}
	return ClaimOpened
}
