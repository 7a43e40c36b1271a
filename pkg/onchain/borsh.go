package onchain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	borsh "github.com/near/borsh-go"
)

// distributorWire and claimStatusWire mirror the Borsh field layout
// Distributor and ClaimStatus are serialized with on-chain. borsh-go
// needs plain fixed-width fields and byte arrays — it does not know how
// to walk a named solana.PublicKey type — so the account structs convert
// through these before encoding/decoding.
type distributorWire struct {
	Discriminator    [8]byte
	Bump             uint8
	Version          uint64
	Root             [32]byte
	Mint             [32]byte
	Vault            [32]byte
	MaxTotalClaim    uint64
	MaxNumNodes      uint64
	TotalClaimed     uint64
	TotalForgone     uint64
	NodesClaimed     uint64
	StartTs          int64
	EndTs            int64
	ClawbackStartTs  int64
	ClawbackReceiver [32]byte
	Admin            [32]byte
	ClawedBack       bool
	EnableTs         int64
	Closable         bool
	Reserved         [96]byte
}

type claimStatusWire struct {
	Discriminator         [8]byte
	Claimant              [32]byte
	LockedAmount          uint64
	LockedAmountWithdrawn uint64
	UnlockedAmount        uint64
	UnlockedAmountClaimed uint64
	Closable              bool
	Admin                 [32]byte
}

// MarshalDistributor encodes d with its account discriminator prefixed,
// matching the wire format getProgramAccounts / programSubscribe clients
// read.
func MarshalDistributor(d *Distributor) ([]byte, error) {
	w := distributorWire{
		Discriminator:    DiscriminatorDistributor,
		Bump:             d.Bump,
		Version:          d.Version,
		Root:             d.Root,
		Mint:             d.Mint,
		Vault:            d.Vault,
		MaxTotalClaim:    d.MaxTotalClaim,
		MaxNumNodes:      d.MaxNumNodes,
		TotalClaimed:     d.TotalClaimed,
		TotalForgone:     d.TotalForgone,
		NodesClaimed:     d.NodesClaimed,
		StartTs:          d.StartTs,
		EndTs:            d.EndTs,
		ClawbackStartTs:  d.ClawbackStartTs,
		ClawbackReceiver: d.ClawbackReceiver,
		Admin:            d.Admin,
		ClawedBack:       d.ClawedBack,
		EnableTs:         d.EnableTs,
		Closable:         d.Closable,
		Reserved:         d.Reserved,
	}
	return borsh.Serialize(w)
}

// UnmarshalDistributor decodes the account bytes read from
// getProgramAccounts/programSubscribe into a Distributor, rejecting data
// that doesn't carry the expected discriminator.
func UnmarshalDistributor(data []byte) (*Distributor, error) {
	var w distributorWire
	if err := borsh.Deserialize(&w, data); err != nil {
		return nil, fmt.Errorf("onchain: deserialize distributor: %w", err)
	}
	if w.Discriminator != DiscriminatorDistributor {
		return nil, fmt.Errorf("onchain: account discriminator mismatch for Distributor")
	}
	return &Distributor{
		Bump:             w.Bump,
		Version:          w.Version,
		Root:             w.Root,
		Mint:             solana.PublicKey(w.Mint),
		Vault:            solana.PublicKey(w.Vault),
		MaxTotalClaim:    w.MaxTotalClaim,
		MaxNumNodes:      w.MaxNumNodes,
		TotalClaimed:     w.TotalClaimed,
		TotalForgone:     w.TotalForgone,
		NodesClaimed:     w.NodesClaimed,
		StartTs:          w.StartTs,
		EndTs:            w.EndTs,
		ClawbackStartTs:  w.ClawbackStartTs,
		ClawbackReceiver: solana.PublicKey(w.ClawbackReceiver),
		Admin:            solana.PublicKey(w.Admin),
		ClawedBack:       w.ClawedBack,
		EnableTs:         w.EnableTs,
		Closable:         w.Closable,
		Reserved:         w.Reserved,
	}, nil
}

// MarshalClaimStatus encodes c with its account discriminator prefixed.
func MarshalClaimStatus(c *ClaimStatus) ([]byte, error) {
	w := claimStatusWire{
		Discriminator:         DiscriminatorClaimStatus,
		Claimant:              c.Claimant,
		LockedAmount:          c.LockedAmount,
		LockedAmountWithdrawn: c.LockedAmountWithdrawn,
		UnlockedAmount:        c.UnlockedAmount,
		UnlockedAmountClaimed: c.UnlockedAmountClaimed,
		Closable:              c.Closable,
		Admin:                 c.Admin,
	}
	return borsh.Serialize(w)
}

// UnmarshalClaimStatus decodes the account bytes read from
// getProgramAccounts/programSubscribe into a ClaimStatus, rejecting data
// that doesn't carry the expected discriminator.
func UnmarshalClaimStatus(data []byte) (*ClaimStatus, error) {
	var w claimStatusWire
	if err := borsh.Deserialize(&w, data); err != nil {
		return nil, fmt.Errorf("onchain: deserialize claim status: %w", err)
	}
	if w.Discriminator != DiscriminatorClaimStatus {
		return nil, fmt.Errorf("onchain: account discriminator mismatch for ClaimStatus")
	}
	return &ClaimStatus{
		Claimant:              solana.PublicKey(w.Claimant),
		LockedAmount:          w.LockedAmount,
		LockedAmountWithdrawn: w.LockedAmountWithdrawn,
		UnlockedAmount:        w.UnlockedAmount,
		UnlockedAmountClaimed: w.UnlockedAmountClaimed,
		Closable:              w.Closable,
		Admin:                 solana.PublicKey(w.Admin),
	}, nil
}
