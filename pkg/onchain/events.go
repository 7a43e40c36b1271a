package onchain

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"
)

// NewClaimEvent is emitted when a claimant opens their claim record via
// new_claim. AmountForgone is the locked portion not-yet-vested at claim
// time, captured for reporting only — it carries no program-state
// dependency.
type NewClaimEvent struct {
	Claimant      solana.PublicKey
	Timestamp     int64
	AmountClaimed uint64
	AmountForgone uint64
}

// ClaimedEvent is emitted on every incremental locked withdrawal via
// claim_locked.
type ClaimedEvent struct {
	Claimant solana.PublicKey
	Amount   uint64
}

// EventSink receives events emitted by state-machine operations. It is a
// log-only side effect — indexers consuming it never gate program
// correctness on delivery.
type EventSink interface {
	EmitNewClaim(NewClaimEvent)
	EmitClaimed(ClaimedEvent)
}

// SlogEventSink emits events as structured log lines, grounded on the
// teacher's slog-everywhere convention.
type SlogEventSink struct {
	Log *slog.Logger
}

func (s SlogEventSink) EmitNewClaim(e NewClaimEvent) {
	s.Log.Info("new_claim",
		"claimant", e.Claimant.String(),
		"timestamp", e.Timestamp,
		"amount_claimed", e.AmountClaimed,
		"amount_forgone", e.AmountForgone,
	)
}

func (s SlogEventSink) EmitClaimed(e ClaimedEvent) {
	s.Log.Info("claimed",
		"claimant", e.Claimant.String(),
		"amount", e.Amount,
	)
}

// NoopEventSink discards events. Useful in tests that only care about
// state-machine outcomes.
type NoopEventSink struct{}

func (NoopEventSink) EmitNewClaim(NewClaimEvent) {}
func (NoopEventSink) EmitClaimed(ClaimedEvent)   {}
