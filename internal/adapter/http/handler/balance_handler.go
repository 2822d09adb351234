package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/hongbao/internal/adapter/http/dto"
	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

type balanceService interface {
	GetBalance(ctx context.Context, userID int64, assetCode string) (*domain.Balance, error)
	ListBalances(ctx context.Context, userID int64) ([]*domain.Balance, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error)
}

// BalanceHandler serves balances and ledger history.
type BalanceHandler struct {
	balances balanceService
}

func NewBalanceHandler(balances balanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// List returns every balance of a user.
func (h *BalanceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeDomainError(w, "invalid user ID", err)
		return
	}

	balances, err := h.balances.ListBalances(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "failed to list balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromDomain(balances))
}

// Get returns one balance. A user who never held the asset has zero.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeDomainError(w, "invalid user ID", err)
		return
	}

	balance, err := h.balances.GetBalance(r.Context(), userID, chi.URLParam(r, "asset"))
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// Entries lists a user's ledger entries, optionally filtered by ?asset=.
func (h *BalanceHandler) Entries(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeDomainError(w, "invalid user ID", err)
		return
	}

	limit, offset := pagination(r)
	entries, err := h.balances.ListEntries(r.Context(), usecase.ListEntriesInput{
		UserID: userID,
		Asset:  r.URL.Query().Get("asset"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
