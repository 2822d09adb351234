package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// EnvelopeResponse represents an envelope in API responses.
type EnvelopeResponse struct {
	ID              string          `json:"id"`
	ChatID          int64           `json:"chat_id"`
	SenderID        int64           `json:"sender_id"`
	Asset           string          `json:"asset"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	MinUnit         decimal.Decimal `json:"min_unit"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	ShareCount      int             `json:"share_count"`
	RemainingShares int             `json:"remaining_shares"`
	Status          string          `json:"status"`
	Note            string          `json:"note,omitempty"`
	RelayedFrom     string          `json:"relayed_from,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	FinishedAt      *time.Time      `json:"finished_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

// EnvelopeFromDomain converts a domain envelope to a response.
func EnvelopeFromDomain(e *domain.Envelope) *EnvelopeResponse {
	return &EnvelopeResponse{
		ID:              e.ID,
		ChatID:          e.ChatID,
		SenderID:        e.SenderID,
		Asset:           e.Asset,
		TotalAmount:     e.TotalAmount,
		MinUnit:         e.MinUnit,
		RemainingAmount: e.RemainingAmount,
		ShareCount:      e.ShareCount,
		RemainingShares: e.RemainingShares,
		Status:          string(e.Status),
		Note:            e.Note,
		RelayedFrom:     e.RelayedFrom,
		CreatedAt:       e.CreatedAt,
		FinishedAt:      e.FinishedAt,
		CancelledAt:     e.CancelledAt,
	}
}

// EnvelopesFromDomain converts domain envelopes to responses.
func EnvelopesFromDomain(envelopes []*domain.Envelope) []*EnvelopeResponse {
	result := make([]*EnvelopeResponse, len(envelopes))
	for i, e := range envelopes {
		result[i] = EnvelopeFromDomain(e)
	}
	return result
}

// ClaimResultResponse is the tagged outcome of a claim attempt. Amount and
// Seq are only set when Outcome is "ok".
type ClaimResultResponse struct {
	Outcome         string           `json:"outcome"`
	EnvelopeID      string           `json:"envelope_id"`
	UserID          int64            `json:"user_id"`
	Asset           string           `json:"asset,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Seq             int              `json:"seq,omitempty"`
	IsLast          bool             `json:"is_last"`
	RemainingShares int              `json:"remaining_shares"`
}

// ClaimResultFromDomain converts a claim result to a response.
func ClaimResultFromDomain(r *domain.ClaimResult) *ClaimResultResponse {
	resp := &ClaimResultResponse{
		Outcome:         string(r.Outcome),
		EnvelopeID:      r.EnvelopeID,
		UserID:          r.UserID,
		Asset:           r.Asset,
		IsLast:          r.IsLast,
		RemainingShares: r.RemainingShares,
	}
	if r.OK() {
		amount := r.Amount
		resp.Amount = &amount
		resp.Seq = r.Seq
	}
	return resp
}

// ClaimResponse is one ranked claim.
type ClaimResponse struct {
	Rank      int             `json:"rank"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Seq       int             `json:"seq"`
	ClaimedAt time.Time       `json:"claimed_at"`
}

// RankingResponse lists claims in ranking order. LuckyKing is null until the
// envelope is finished.
type RankingResponse struct {
	EnvelopeID string           `json:"envelope_id"`
	Asset      string           `json:"asset"`
	Status     string           `json:"status"`
	Total      decimal.Decimal  `json:"total"`
	Claimed    decimal.Decimal  `json:"claimed"`
	ShareCount int              `json:"share_count"`
	Claims     []*ClaimResponse `json:"claims"`
	LuckyKing  *ClaimResponse   `json:"lucky_king"`
}

// RankingFromDomain converts a ranking to a response.
func RankingFromDomain(r *domain.Ranking) *RankingResponse {
	resp := &RankingResponse{
		EnvelopeID: r.EnvelopeID,
		Asset:      r.Asset,
		Status:     string(r.Status),
		Total:      r.Total,
		Claimed:    r.Claimed,
		ShareCount: r.ShareCount,
		Claims:     make([]*ClaimResponse, len(r.Claims)),
	}
	for i, c := range r.Claims {
		cr := &ClaimResponse{
			Rank:      i + 1,
			UserID:    c.UserID,
			Amount:    c.Amount,
			Seq:       c.Seq,
			ClaimedAt: c.ClaimedAt,
		}
		resp.Claims[i] = cr
		if r.LuckyKing == c {
			resp.LuckyKing = cr
		}
	}
	return resp
}

// CancelResponse reports what a cancel returned to the sender.
type CancelResponse struct {
	EnvelopeID string          `json:"envelope_id"`
	Refunded   decimal.Decimal `json:"refunded"`
}

// BalanceResponse represents a balance snapshot.
type BalanceResponse struct {
	UserID    int64           `json:"user_id"`
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BalanceFromDomain converts a domain balance to a response.
func BalanceFromDomain(b *domain.Balance) *BalanceResponse {
	return &BalanceResponse{
		UserID:    b.UserID,
		Asset:     b.Asset,
		Amount:    b.Amount,
		UpdatedAt: b.UpdatedAt,
	}
}

// BalancesFromDomain converts domain balances to responses.
func BalancesFromDomain(balances []*domain.Balance) []*BalanceResponse {
	result := make([]*BalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = BalanceFromDomain(b)
	}
	return result
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID           string          `json:"id"`
	UserID       int64           `json:"user_id"`
	Asset        string          `json:"asset"`
	Delta        decimal.Decimal `json:"delta"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	RefType      string          `json:"ref_type"`
	RefID        string          `json:"ref_id"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:           e.ID,
		UserID:       e.UserID,
		Asset:        e.Asset,
		Delta:        e.Delta,
		BalanceAfter: e.BalanceAfter,
		RefType:      string(e.RefType),
		RefID:        e.RefID,
		Note:         e.Note,
		CreatedAt:    e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// DiscrepancyResponse is one balance whose snapshot differs from its ledger sum.
type DiscrepancyResponse struct {
	UserID     int64           `json:"user_id"`
	Asset      string          `json:"asset"`
	Recorded   decimal.Decimal `json:"recorded"`
	Calculated decimal.Decimal `json:"calculated"`
	Difference decimal.Decimal `json:"difference"`
}

// ReconciliationReportResponse summarizes a full reconciliation run.
type ReconciliationReportResponse struct {
	LedgerConsistent bool                   `json:"ledger_consistent"`
	Discrepancies    []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt        time.Time              `json:"checked_at"`
}

// ReportFromUseCase converts a reconciliation report to a response.
func ReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	resp := &ReconciliationReportResponse{
		LedgerConsistent: r.LedgerConsistent,
		Discrepancies:    make([]*DiscrepancyResponse, len(r.Discrepancies)),
		CheckedAt:        r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &DiscrepancyResponse{
			UserID:     d.UserID,
			Asset:      d.Asset,
			Recorded:   d.RecordedBalance,
			Calculated: d.CalculatedBalance,
			Difference: d.Difference,
		}
	}
	return resp
}

// VerificationResponse is the conservation check of one envelope.
type VerificationResponse struct {
	EnvelopeID string          `json:"envelope_id"`
	OK         bool            `json:"ok"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Claimed    decimal.Decimal `json:"claimed"`
	Remaining  decimal.Decimal `json:"remaining"`
	Refunded   decimal.Decimal `json:"refunded"`
	ClaimCount int             `json:"claim_count"`
	Violations []string        `json:"violations"`
}

// VerificationFromUseCase converts an envelope verification to a response.
func VerificationFromUseCase(v *usecase.EnvelopeVerification) *VerificationResponse {
	violations := v.Violations
	if violations == nil {
		violations = []string{}
	}
	return &VerificationResponse{
		EnvelopeID: v.EnvelopeID,
		OK:         v.OK(),
		Status:     string(v.Status),
		Total:      v.Total,
		Claimed:    v.Claimed,
		Remaining:  v.Remaining,
		Refunded:   v.Refunded,
		ClaimCount: v.ClaimCount,
		Violations: violations,
	}
}
