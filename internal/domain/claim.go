package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Claim is one share granted to exactly one claimant.
type Claim struct {
	EnvelopeID    string
	UserID        int64
	Amount        decimal.Decimal
	Seq           int
	LedgerEntryID string
	ClaimedAt     time.Time
}

// ClaimOutcome tags the result of a claim attempt.
type ClaimOutcome string

const (
	ClaimOK             ClaimOutcome = "ok"
	ClaimAlreadyClaimed ClaimOutcome = "already_claimed"
	ClaimFinished       ClaimOutcome = "finished"
	ClaimNotFound       ClaimOutcome = "not_found"
)

// ClaimResult is returned for every expected claim outcome. Amount, Seq and IsLast
// are only meaningful when Outcome is ClaimOK.
type ClaimResult struct {
	Outcome         ClaimOutcome
	EnvelopeID      string
	UserID          int64
	Asset           string
	Amount          decimal.Decimal
	Seq             int
	IsLast          bool
	RemainingShares int
	// Envelope is the state right after the claim, or the last known state for
	// non-OK outcomes. It may be nil when the envelope does not exist.
	Envelope *Envelope
}

// OK reports whether a share was granted.
func (r *ClaimResult) OK() bool {
	return r.Outcome == ClaimOK
}

// Err maps non-OK outcomes back to their sentinel error.
func (r *ClaimResult) Err() error {
	switch r.Outcome {
	case ClaimOK:
		return nil
	case ClaimAlreadyClaimed:
		return ErrAlreadyClaimed
	case ClaimFinished:
		return ErrEnvelopeFinished
	case ClaimNotFound:
		return ErrEnvelopeNotFound
	default:
		return errors.New("unknown claim outcome")
	}
}

// ClaimOutcomeFromError classifies expected claim errors. ok is false for any
// error that is not an expected outcome.
func ClaimOutcomeFromError(err error) (outcome ClaimOutcome, ok bool) {
	switch {
	case errors.Is(err, ErrAlreadyClaimed):
		return ClaimAlreadyClaimed, true
	case errors.Is(err, ErrEnvelopeFinished), errors.Is(err, ErrEnvelopeNotActive):
		return ClaimFinished, true
	case errors.Is(err, ErrEnvelopeNotFound):
		return ClaimNotFound, true
	default:
		return "", false
	}
}
