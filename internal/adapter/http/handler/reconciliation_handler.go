package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agoramesh/walletd/internal/adapter/http/dto"
	"github.com/agoramesh/walletd/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	CheckWallet(ctx context.Context, walletID string) (*usecase.ReconciliationReport, error)
	CheckAll(ctx context.Context) ([]*usecase.ReconciliationReport, error)
}

// ReconciliationHandler serves balance reconciliation reports.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// CheckWallet reconciles a single wallet against its transaction trail.
func (h *ReconciliationHandler) CheckWallet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	report, err := h.reconUC.CheckWallet(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromReport(report))
}

// CheckAll reconciles every wallet.
func (h *ReconciliationHandler) CheckAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reconUC.CheckAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reconcile wallets", err.Error())
		return
	}

	out := make([]*dto.ReconciliationResponse, len(reports))
	inconsistent := 0
	for i, report := range reports {
		out[i] = dto.ReconciliationFromReport(report)
		if !report.Consistent {
			inconsistent++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reports":      out,
		"total":        len(out),
		"inconsistent": inconsistent,
	})
}
