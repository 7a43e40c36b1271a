package onchain

import "errors"

// Sentinel errors for every Kind in spec.md §7's error table. Operations
// never panic on invalid input — only programmer error (e.g. a nil
// TokenVault) panics — and callers distinguish failures with errors.Is.
var (
	ErrInvalidProof                 = errors.New("onchain: merkle proof does not reconstruct to distributor root")
	ErrExceededMaxClaim              = errors.New("onchain: claim would exceed max_total_claim")
	ErrMaxNodesExceeded               = errors.New("onchain: nodes_claimed has reached max_num_nodes")
	ErrUnauthorized                   = errors.New("onchain: caller is not authorized to perform this operation")
	ErrOwnerMismatch                  = errors.New("onchain: token account owner does not match initializer")
	ErrClawbackDuringVesting          = errors.New("onchain: clawback_start_ts must be at least MIN_CLAWBACK_DELAY after end_ts")
	ErrClawbackBeforeStart            = errors.New("onchain: clawback called before clawback_start_ts")
	ErrClawbackAlreadyClaimed         = errors.New("onchain: distributor has already been clawed back")
	ErrInsufficientClawbackDelay      = errors.New("onchain: clawback_start_ts violates the minimum clawback delay")
	ErrSameClawbackReceiver           = errors.New("onchain: new clawback receiver equals the current one")
	ErrSameAdmin                      = errors.New("onchain: new admin equals the current one")
	ErrClaimExpired                   = errors.New("onchain: now is past clawback_start_ts")
	ErrClaimingIsNotStarted           = errors.New("onchain: now is before enable_ts")
	ErrArithmeticError                = errors.New("onchain: arithmetic overflow or underflow")
	ErrStartTimestampAfterEnd         = errors.New("onchain: start_ts is not before end_ts")
	ErrTimestampsNotInFuture          = errors.New("onchain: start_ts or end_ts is not in the future")
	ErrStartTooFarInFuture            = errors.New("onchain: clawback_start_ts exceeds the maximum clawback horizon")
	ErrInvalidVersion                 = errors.New("onchain: version mismatch during distributor lookup")
	ErrInsufficientUnlockedTokens     = errors.New("onchain: no newly vested tokens available to claim")
	ErrCannotCloseDistributor         = errors.New("onchain: distributor is not closable")
	ErrCannotCloseClaimStatus         = errors.New("onchain: claim status is not closable")
	ErrClaimAlreadyExists             = errors.New("onchain: claim record already exists for this claimant")
	ErrInvalidClawbackDestination     = errors.New("onchain: clawback destination does not match distributor's clawback_receiver")
)
