package onchain

import "math/bits"

// MinClawbackDelay is the minimum gap enforced between a distributor's
// vesting end and its clawback start (spec.md §3: "≥ 1 day").
const MinClawbackDelay = int64(24 * 60 * 60)

// MaxClawbackHorizon is the default maximum distance in the future a
// distributor's clawback_start_ts may be set relative to creation time
// (spec.md §3: "a configurable horizon to prevent unreasonable delay").
// Operators may configure a different horizon via
// CreateDistributorParams.MaxClawbackHorizon.
const MaxClawbackHorizon = int64(365 * 24 * 60 * 60)

// VestedAmount computes the linearly vested portion of a locked total L
// between start and end, rounded down. Dust below 1 unit lingers in the
// vault after the final locked claim and is swept by clawback.
func VestedAmount(locked uint64, start, end, now int64) uint64 {
	if now <= start {
		return 0
	}
	if now >= end {
		return locked
	}
	elapsed := uint64(now - start)
	total := uint64(end - start)

	// locked*elapsed can overflow 64 bits, so multiply widening into 128
	// bits and divide back down; hi < total is guaranteed since
	// elapsed < total here, so the quotient always fits in 64 bits.
	hi, lo := bits.Mul64(locked, elapsed)
	q, _ := bits.Div64(hi, lo, total)
	return q
}
