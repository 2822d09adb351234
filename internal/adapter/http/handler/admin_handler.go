package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/hongbao/internal/adapter/http/dto"
	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

type adjuster interface {
	Adjust(ctx context.Context, input usecase.AdjustInput) (*domain.LedgerEntry, error)
}

type reconciler interface {
	Report(ctx context.Context) (*usecase.ReconciliationReport, error)
	VerifyEnvelope(ctx context.Context, envelopeID string) (*usecase.EnvelopeVerification, error)
}

// AdminHandler serves operator endpoints.
type AdminHandler struct {
	adjuster   adjuster
	reconciler reconciler
}

func NewAdminHandler(adjuster adjuster, reconciler reconciler) *AdminHandler {
	return &AdminHandler{adjuster: adjuster, reconciler: reconciler}
}

// Adjust credits or debits a user's balance.
func (h *AdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.adjuster.Adjust(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to adjust balance", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Reconciliation compares every balance snapshot with its ledger.
func (h *AdminHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Report(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}

// VerifyEnvelope runs the conservation check of one envelope.
func (h *AdminHandler) VerifyEnvelope(w http.ResponseWriter, r *http.Request) {
	v, err := h.reconciler.VerifyEnvelope(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to verify envelope", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerificationFromUseCase(v))
}
