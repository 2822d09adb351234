package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/hongbao/internal/domain"
)

// businessErrors are expected outcomes that callers render as-is.
var businessErrors = []error{
	domain.ErrValidation,
	domain.ErrInvalidAmount,
	domain.ErrUnknownAsset,
	domain.ErrInsufficientBalance,
	domain.ErrRefundTicketNotFound,
	domain.ErrEnvelopeNotFound,
	domain.ErrEnvelopeFinished,
	domain.ErrEnvelopeNotActive,
	domain.ErrAlreadyClaimed,
	domain.ErrAllocationInfeasible,
	domain.ErrNotEnvelopeSender,
	domain.ErrNotLuckyKing,
	domain.ErrAlreadyRelayed,
	domain.ErrStorageUnavailable,
}

// classify passes business errors through and wraps anything else as
// domain.ErrStorageUnavailable, which callers may retry as a whole.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

// IsRetryable reports whether the caller may safely repeat the whole operation.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrStorageUnavailable)
}

func retry(ctx context.Context, r Retrier, op func() error) error {
	if r == nil {
		return op()
	}
	return r.Retry(ctx, op)
}
