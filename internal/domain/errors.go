package domain

import "errors"

var (
	// ErrValidation is the parent of every input rejection raised before a mutation.
	ErrValidation = errors.New("validation failed")

	// Balance errors
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrUnknownAsset         = errors.New("unknown asset")
	ErrRefundTicketNotFound = errors.New("refund ticket not found")

	// Envelope errors
	ErrEnvelopeNotFound      = errors.New("envelope not found")
	ErrEnvelopeFinished      = errors.New("envelope finished")
	ErrEnvelopeNotActive     = errors.New("envelope is not active")
	ErrAlreadyClaimed        = errors.New("envelope already claimed by user")
	ErrAllocationInfeasible  = errors.New("allocation infeasible: min unit times shares exceeds total")
	ErrNotEnvelopeSender     = errors.New("only the sender may cancel the envelope")
	ErrNotLuckyKing          = errors.New("caller is not the lucky king of the envelope")
	ErrAlreadyRelayed        = errors.New("envelope already relayed")
	ErrConservationViolation = errors.New("envelope conservation violated")

	// Infrastructure errors
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrNotificationFailure  = errors.New("notification delivery failed")
	ErrNotificationRejected = errors.New("notification rejected by transport")
)
