// Package onchain implements the distribution program's state machine as
// a pure, side-effect-free Go package: each operation is a
// (*Distributor, *ClaimStatus) transform that takes a TokenVault for the
// one external effect it has (moving tokens). Transaction dispatch,
// signature verification, rent accounting, and associated-token-account
// creation are out of scope (spec.md §1) — the host runtime supplies
// them; this package specifies only what it requires from that runtime.
package onchain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/merkle-distributor/pkg/merkle"
)

// TokenVault is the one external effect every C4 operation may have:
// moving tokens out of the distributor's vault. A live implementation
// wraps an SPL token CPI; tests use an in-memory fake.
type TokenVault interface {
	Balance() uint64
	Transfer(to solana.PublicKey, amount uint64) error
}

// CreateDistributorParams holds every caller-supplied input to
// create_distributor.
type CreateDistributorParams struct {
	Version                uint64
	Root                   [32]byte
	Mint                   solana.PublicKey
	Vault                  solana.PublicKey
	MaxTotalClaim          uint64
	MaxNumNodes            uint64
	StartTs                int64
	EndTs                  int64
	ClawbackStartTs        int64
	EnableTs               int64
	Closable               bool
	Caller                 solana.PublicKey
	ClawbackReceiver       solana.PublicKey
	ClawbackReceiverOwner  solana.PublicKey
	// MaxClawbackHorizon overrides MaxClawbackHorizon when nonzero.
	MaxClawbackHorizon int64
}

// CreateDistributor validates and allocates a new Distributor record.
//
// Frontrunning hazard (spec.md §4.4): the distributor's address derives
// deterministically from (mint, version); an observer could submit a
// competing creation transaction first. This package cannot prevent that
// — callers MUST confirm their own transaction landed and read back the
// created record to assert admin and clawback receiver match expectation.
func CreateDistributor(clock clockwork.Clock, p CreateDistributorParams) (*Distributor, error) {
	now := clock.Now().Unix()

	if p.StartTs >= p.EndTs {
		return nil, ErrStartTimestampAfterEnd
	}
	if p.StartTs <= now || p.EndTs <= now {
		return nil, ErrTimestampsNotInFuture
	}
	minClawback, err := checkedAddI64(p.EndTs, MinClawbackDelay)
	if err != nil {
		return nil, err
	}
	if p.ClawbackStartTs < minClawback {
		return nil, ErrInsufficientClawbackDelay
	}
	horizon := p.MaxClawbackHorizon
	if horizon == 0 {
		horizon = MaxClawbackHorizon
	}
	if p.ClawbackStartTs-now > horizon {
		return nil, ErrStartTooFarInFuture
	}
	if p.ClawbackReceiverOwner != p.Caller {
		return nil, ErrOwnerMismatch
	}

	return &Distributor{
		Version:          p.Version,
		Root:             p.Root,
		Mint:             p.Mint,
		Vault:            p.Vault,
		MaxTotalClaim:    p.MaxTotalClaim,
		MaxNumNodes:      p.MaxNumNodes,
		StartTs:          p.StartTs,
		EndTs:            p.EndTs,
		ClawbackStartTs:  p.ClawbackStartTs,
		EnableTs:         p.EnableTs,
		Closable:         p.Closable,
		Admin:            p.Caller,
		ClawbackReceiver: p.ClawbackReceiver,
	}, nil
}

// NewClaim opens a claimant's claim record against d, verifying the
// Merkle proof and transferring the unlocked amount plus whatever
// portion of the locked amount has already vested. existing must be nil
// — the host runtime's account-creation semantics are what actually
// enforces "claim record does not yet exist" on-chain; callers pass the
// result of their own lookup here.
func NewClaim(
	d *Distributor,
	existing *ClaimStatus,
	claimant solana.PublicKey,
	claimantTokenAccount solana.PublicKey,
	amountUnlocked, amountLocked uint64,
	proof merkle.Proof,
	vault TokenVault,
	clock clockwork.Clock,
	sink EventSink,
) (*ClaimStatus, error) {
	if vault == nil {
		panic("onchain: NewClaim called with a nil TokenVault")
	}
	now := clock.Now().Unix()

	if existing != nil {
		return nil, ErrClaimAlreadyExists
	}
	if now < d.EnableTs {
		return nil, ErrClaimingIsNotStarted
	}
	if now > d.ClawbackStartTs {
		return nil, ErrClaimExpired
	}
	if d.ClawedBack {
		return nil, ErrClawbackAlreadyClaimed
	}
	if d.NodesClaimed >= d.MaxNumNodes {
		return nil, ErrMaxNodesExceeded
	}

	leaf := merkle.Leaf{Claimant: claimant, UnlockedAmount: amountUnlocked, LockedAmount: amountLocked}
	if !merkle.Verify(leaf, proof, d.Root) {
		return nil, ErrInvalidProof
	}

	vested := VestedAmount(amountLocked, d.StartTs, d.EndTs, now)
	transferAmount, err := checkedAdd(amountUnlocked, vested)
	if err != nil {
		return nil, err
	}
	newTotalClaimed, err := checkedAdd(d.TotalClaimed, transferAmount)
	if err != nil {
		return nil, err
	}
	if newTotalClaimed > d.MaxTotalClaim {
		return nil, ErrExceededMaxClaim
	}

	if err := vault.Transfer(claimantTokenAccount, transferAmount); err != nil {
		return nil, fmt.Errorf("onchain: vault transfer failed: %w", err)
	}

	d.TotalClaimed = newTotalClaimed
	d.NodesClaimed++

	record := &ClaimStatus{
		Claimant:              claimant,
		LockedAmount:          amountLocked,
		LockedAmountWithdrawn: vested,
		UnlockedAmount:        amountUnlocked,
		UnlockedAmountClaimed: amountUnlocked,
		Closable:              d.Closable,
		Admin:                 d.Admin,
	}

	if sink != nil {
		sink.EmitNewClaim(NewClaimEvent{
			Claimant:      claimant,
			Timestamp:     now,
			AmountClaimed: transferAmount,
			AmountForgone: amountLocked - vested,
		})
	}

	return record, nil
}

// ClaimLocked withdraws whatever portion of the locked amount has newly
// vested since the claimant's last withdrawal.
func ClaimLocked(
	d *Distributor,
	c *ClaimStatus,
	claimantTokenAccount solana.PublicKey,
	vault TokenVault,
	clock clockwork.Clock,
	sink EventSink,
) error {
	if vault == nil {
		panic("onchain: ClaimLocked called with a nil TokenVault")
	}
	if c == nil {
		return fmt.Errorf("onchain: no claim record exists for this claimant")
	}
	now := clock.Now().Unix()

	if d.ClawedBack {
		return ErrClawbackAlreadyClaimed
	}
	if now > d.ClawbackStartTs {
		return ErrClaimExpired
	}

	target := VestedAmount(c.LockedAmount, d.StartTs, d.EndTs, now)
	if target < c.LockedAmountWithdrawn {
		return ErrArithmeticError
	}
	delta := target - c.LockedAmountWithdrawn
	if delta == 0 {
		return ErrInsufficientUnlockedTokens
	}

	newWithdrawn, err := checkedAdd(c.LockedAmountWithdrawn, delta)
	if err != nil {
		return err
	}
	newTotalClaimed, err := checkedAdd(d.TotalClaimed, delta)
	if err != nil {
		return err
	}

	if err := vault.Transfer(claimantTokenAccount, delta); err != nil {
		return fmt.Errorf("onchain: vault transfer failed: %w", err)
	}

	c.LockedAmountWithdrawn = newWithdrawn
	d.TotalClaimed = newTotalClaimed

	if sink != nil {
		sink.EmitClaimed(ClaimedEvent{Claimant: c.Claimant, Amount: delta})
	}
	return nil
}

// Clawback sweeps the vault's entire remaining balance to the
// distributor's configured clawback receiver. Any signer may invoke it —
// it is permissionless, to relieve the admin of being a liveness
// dependency.
func Clawback(d *Distributor, destination solana.PublicKey, vault TokenVault, clock clockwork.Clock) (uint64, error) {
	if vault == nil {
		panic("onchain: Clawback called with a nil TokenVault")
	}
	now := clock.Now().Unix()

	if now < d.ClawbackStartTs {
		return 0, ErrClawbackBeforeStart
	}
	if d.ClawedBack {
		return 0, ErrClawbackAlreadyClaimed
	}
	if destination != d.ClawbackReceiver {
		return 0, ErrInvalidClawbackDestination
	}

	remaining := vault.Balance()
	if remaining > 0 {
		if err := vault.Transfer(destination, remaining); err != nil {
			return 0, fmt.Errorf("onchain: vault transfer failed: %w", err)
		}
	}

	d.ClawedBack = true
	d.TotalForgone = remaining
	return remaining, nil
}

// SetClawbackReceiver rotates the distributor's clawback receiver.
// Admin-signed; rejects a no-op rotation.
func SetClawbackReceiver(d *Distributor, caller, newReceiver solana.PublicKey) error {
	if caller != d.Admin {
		return ErrUnauthorized
	}
	if newReceiver == d.ClawbackReceiver {
		return ErrSameClawbackReceiver
	}
	d.ClawbackReceiver = newReceiver
	return nil
}

// SetAdmin rotates the distributor's admin. Admin-signed; rejects a
// no-op rotation. Atomic: once this returns, only newAdmin can perform
// subsequent admin-signed operations.
func SetAdmin(d *Distributor, caller, newAdmin solana.PublicKey) error {
	if caller != d.Admin {
		return ErrUnauthorized
	}
	if newAdmin == d.Admin {
		return ErrSameAdmin
	}
	d.Admin = newAdmin
	return nil
}

// SetEnableTs updates the distributor's activation timestamp. Admin-signed.
// Named set_enable_slot in spec.md §4.4; this implementation picks the
// timestamp domain for enable (not a slot number) and compares it
// directly against clock.Now().Unix() everywhere claiming checks it —
// spec.md §9's open question about slot-vs-timestamp is resolved here in
// favor of timestamp, matching start_ts/end_ts/clawback_start_ts, which
// are already all timestamps.
func SetEnableTs(d *Distributor, caller solana.PublicKey, newEnableTs int64) error {
	if caller != d.Admin {
		return ErrUnauthorized
	}
	d.EnableTs = newEnableTs
	return nil
}

// CloseDistributor sweeps any residual vault balance to destination and
// reports it for the caller to deallocate the record. Only permitted
// when d.Closable is true (test fixtures only).
func CloseDistributor(d *Distributor, caller, destination solana.PublicKey, vault TokenVault) (uint64, error) {
	if !d.Closable {
		return 0, ErrCannotCloseDistributor
	}
	if caller != d.Admin {
		return 0, ErrUnauthorized
	}
	remaining := vault.Balance()
	if remaining > 0 {
		if err := vault.Transfer(destination, remaining); err != nil {
			return 0, fmt.Errorf("onchain: vault transfer failed: %w", err)
		}
	}
	return remaining, nil
}

// CloseClaimStatus authorizes closure of a claim record against its own
// cached admin field — the admin at the time the record was created, not
// the distributor's possibly-rotated current admin — matching the
// original program's close_claim_status.rs authorization. Only permitted
// when c.Closable is true (test fixtures only).
func CloseClaimStatus(c *ClaimStatus, caller solana.PublicKey) error {
	if !c.Closable {
		return ErrCannotCloseClaimStatus
	}
	if caller != c.Admin {
		return ErrUnauthorized
	}
	return nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmeticError
	}
	return sum, nil
}

func checkedAddI64(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrArithmeticError
	}
	return sum, nil
}
