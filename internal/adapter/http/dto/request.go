package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// CreateEnvelopeRequest represents a request to send an envelope to a chat.
type CreateEnvelopeRequest struct {
	ChatID   int64            `json:"chat_id"`
	SenderID int64            `json:"sender_id"`
	Asset    string           `json:"asset"`
	Total    decimal.Decimal  `json:"total"`
	Shares   int              `json:"shares"`
	MinUnit  *decimal.Decimal `json:"min_unit,omitempty"`
	Note     string           `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEnvelopeRequest) ToUseCaseInput() usecase.CreateEnvelopeInput {
	return usecase.CreateEnvelopeInput{
		ChatID:   r.ChatID,
		SenderID: r.SenderID,
		Asset:    r.Asset,
		Total:    r.Total,
		Shares:   r.Shares,
		MinUnit:  r.MinUnit,
		Note:     r.Note,
	}
}

// ActorRequest names the chat user a claim, relay or cancel is made for.
type ActorRequest struct {
	UserID int64 `json:"user_id"`
}

// Validate rejects a missing user.
func (r *ActorRequest) Validate() error {
	if r.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be a positive chat user id", domain.ErrValidation)
	}
	return nil
}

// AdjustmentRequest is an operator credit or debit. A negative amount debits.
type AdjustmentRequest struct {
	UserID int64           `json:"user_id"`
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// ToUseCaseInput converts to use case input.
func (r *AdjustmentRequest) ToUseCaseInput() usecase.AdjustInput {
	return usecase.AdjustInput{
		UserID: r.UserID,
		Asset:  r.Asset,
		Amount: r.Amount,
		Note:   r.Note,
	}
}
