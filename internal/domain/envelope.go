package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnvelopeStatus represents the lifecycle state of an envelope.
type EnvelopeStatus string

const (
	EnvelopeStatusActive    EnvelopeStatus = "active"
	EnvelopeStatusFinished  EnvelopeStatus = "finished"
	EnvelopeStatusCancelled EnvelopeStatus = "cancelled"
)

// Envelope is a fixed total of an asset split into a fixed number of shares.
type Envelope struct {
	ID              string
	ChatID          int64
	SenderID        int64
	Asset           string
	TotalAmount     decimal.Decimal
	MinUnit         decimal.Decimal
	RemainingAmount decimal.Decimal
	ShareCount      int
	RemainingShares int
	Status          EnvelopeStatus
	Note            string
	// RelayedFrom is the source envelope ID when this envelope was created by a relay.
	RelayedFrom string
	Version     int64
	CreatedAt   time.Time
	FinishedAt  *time.Time
	CancelledAt *time.Time
}

// IsTerminal reports whether the envelope can no longer change.
func (e *Envelope) IsTerminal() bool {
	return e.Status == EnvelopeStatusFinished || e.Status == EnvelopeStatusCancelled
}

// ClaimedShares returns the number of shares already granted. It is not
// meaningful for cancelled envelopes, whose remaining shares are zeroed.
func (e *Envelope) ClaimedShares() int {
	return e.ShareCount - e.RemainingShares
}

// ClaimedAmount returns the sum already granted to claimants.
// For cancelled envelopes the refunded remainder is not included.
func (e *Envelope) ClaimedAmount(refunded decimal.Decimal) decimal.Decimal {
	return e.TotalAmount.Sub(e.RemainingAmount).Sub(refunded)
}

// ValidateClaimable returns ErrEnvelopeFinished for envelopes with nothing left to grant.
func (e *Envelope) ValidateClaimable() error {
	if e.Status != EnvelopeStatusActive || e.RemainingShares <= 0 {
		return ErrEnvelopeFinished
	}
	return nil
}

// ValidateCancel checks that caller may cancel the envelope right now.
func (e *Envelope) ValidateCancel(callerID int64) error {
	if e.SenderID != callerID {
		return ErrNotEnvelopeSender
	}
	if e.Status != EnvelopeStatusActive {
		return ErrEnvelopeNotActive
	}
	return nil
}

// ApplyClaim returns a copy of the envelope after granting amount at the given time.
func (e *Envelope) ApplyClaim(amount decimal.Decimal, at time.Time) *Envelope {
	next := *e
	next.RemainingShares--
	next.RemainingAmount = next.RemainingAmount.Sub(amount)
	next.Version++
	if next.RemainingShares == 0 {
		next.Status = EnvelopeStatusFinished
		next.FinishedAt = &at
	}
	return &next
}

// ApplyCancel returns a copy of the envelope after cancellation.
func (e *Envelope) ApplyCancel(at time.Time) *Envelope {
	next := *e
	next.Status = EnvelopeStatusCancelled
	next.RemainingShares = 0
	next.RemainingAmount = decimal.Zero
	next.Version++
	next.CancelledAt = &at
	return &next
}
