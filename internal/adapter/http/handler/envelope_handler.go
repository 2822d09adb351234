package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/adapter/http/dto"
	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

type envelopeService interface {
	CreateEnvelope(ctx context.Context, input usecase.CreateEnvelopeInput) (*domain.Envelope, error)
	ClaimEnvelope(ctx context.Context, envelopeID string, userID int64) (*domain.ClaimResult, error)
	Cancel(ctx context.Context, envelopeID string, callerID int64) (decimal.Decimal, error)
	GetEnvelope(ctx context.Context, id string) (*domain.Envelope, error)
	ListByChat(ctx context.Context, chatID int64, limit, offset int) ([]*domain.Envelope, error)
}

type rankingService interface {
	Rank(ctx context.Context, envelopeID string) (*domain.Ranking, error)
}

type relayService interface {
	Relay(ctx context.Context, envelopeID string, callerID int64) (*domain.Envelope, error)
}

// EnvelopeHandler handles envelope-related HTTP requests.
type EnvelopeHandler struct {
	envelopes envelopeService
	rankings  rankingService
	relays    relayService
}

// NewEnvelopeHandler creates a new EnvelopeHandler.
func NewEnvelopeHandler(envelopes envelopeService, rankings rankingService, relays relayService) *EnvelopeHandler {
	return &EnvelopeHandler{envelopes: envelopes, rankings: rankings, relays: relays}
}

// Create sends a new envelope.
func (h *EnvelopeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEnvelopeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	env, err := h.envelopes.CreateEnvelope(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create envelope", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EnvelopeFromDomain(env))
}

// Get retrieves an envelope by ID.
func (h *EnvelopeHandler) Get(w http.ResponseWriter, r *http.Request) {
	env, err := h.envelopes.GetEnvelope(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get envelope", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EnvelopeFromDomain(env))
}

// ListByChat lists a chat's envelopes, newest first.
func (h *EnvelopeHandler) ListByChat(w http.ResponseWriter, r *http.Request) {
	chatID, err := int64Param(r, "chatId")
	if err != nil {
		writeDomainError(w, "invalid chat ID", err)
		return
	}

	limit, offset := pagination(r)
	envelopes, err := h.envelopes.ListByChat(r.Context(), chatID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list envelopes", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EnvelopesFromDomain(envelopes))
}

// Claim grabs one share. Every claim outcome is a 200; only validation and
// storage failures are errors.
func (h *EnvelopeHandler) Claim(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeActor(w, r)
	if !ok {
		return
	}

	result, err := h.envelopes.ClaimEnvelope(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		writeDomainError(w, "failed to claim envelope", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClaimResultFromDomain(result))
}

// Ranking returns the ranked claims and, once finished, the lucky king.
func (h *EnvelopeHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.rankings.Rank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to rank envelope", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RankingFromDomain(ranking))
}

// Relay lets the lucky king send the same envelope back to the chat.
func (h *EnvelopeHandler) Relay(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeActor(w, r)
	if !ok {
		return
	}

	env, err := h.relays.Relay(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		writeDomainError(w, "failed to relay envelope", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EnvelopeFromDomain(env))
}

// Cancel stops an active envelope and refunds the sender.
func (h *EnvelopeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	refunded, err := h.envelopes.Cancel(r.Context(), id, req.UserID)
	if err != nil {
		writeDomainError(w, "failed to cancel envelope", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CancelResponse{EnvelopeID: id, Refunded: refunded})
}

func decodeActor(w http.ResponseWriter, r *http.Request) (dto.ActorRequest, bool) {
	var req dto.ActorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return req, false
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, "invalid request body", err)
		return req, false
	}
	return req, true
}
