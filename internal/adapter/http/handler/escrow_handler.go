package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agoramesh/walletd/internal/adapter/http/dto"
	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
)

// EscrowService defines the behavior needed by EscrowHandler.
type EscrowService interface {
	CreateEscrow(ctx context.Context, input usecase.CreateEscrowInput) (*domain.Escrow, error)
	GetEscrow(ctx context.Context, id string) (*domain.Escrow, error)
	ListEscrowsByWallet(ctx context.Context, input usecase.ListEscrowsByWalletInput) ([]*domain.Escrow, error)
	Settle(ctx context.Context, escrowID string) (*domain.Escrow, error)
	Cancel(ctx context.Context, escrowID string) (*domain.Escrow, error)
	Dispute(ctx context.Context, escrowID string) (*domain.Escrow, error)
	Reinstate(ctx context.Context, escrowID string) (*domain.Escrow, error)
}

// EscrowHandler handles escrow-related HTTP requests.
type EscrowHandler struct {
	escrowUC EscrowService
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(escrowUC EscrowService) *EscrowHandler {
	return &EscrowHandler{escrowUC: escrowUC}
}

// Create creates a new escrow.
func (h *EscrowHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	escrow, err := h.escrowUC.CreateEscrow(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EscrowFromDomain(escrow))
}

// Get retrieves an escrow by ID.
func (h *EscrowHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing escrow ID", "")
		return
	}

	escrow, err := h.escrowUC.GetEscrow(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EscrowFromDomain(escrow))
}

// ListByWallet lists escrows touching a wallet.
func (h *EscrowHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	escrows, err := h.escrowUC.ListEscrowsByWallet(r.Context(), usecase.ListEscrowsByWalletInput{
		WalletID: id,
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list escrows", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEscrowsResponse{
		Escrows: dto.EscrowsFromDomain(escrows),
		Total:   int64(len(escrows)),
	})
}

// Settle completes an escrow, moving held funds and collecting fees.
func (h *EscrowHandler) Settle(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.escrowUC.Settle, "failed to settle escrow")
}

// Cancel releases an escrow's hold without transferring funds.
func (h *EscrowHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.escrowUC.Cancel, "failed to cancel escrow")
}

// Dispute parks a held escrow pending external resolution.
func (h *EscrowHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.escrowUC.Dispute, "failed to dispute escrow")
}

// Reinstate returns a disputed escrow to held.
func (h *EscrowHandler) Reinstate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.escrowUC.Reinstate, "failed to reinstate escrow")
}

func (h *EscrowHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, escrowID string) (*domain.Escrow, error),
	failureMessage string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing escrow ID", "")
		return
	}

	escrow, err := op(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), failureMessage, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EscrowFromDomain(escrow))
}
