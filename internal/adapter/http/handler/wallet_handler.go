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

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	CreateWallet(ctx context.Context, input usecase.CreateWalletInput) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id string) (*domain.Wallet, error)
	ListWallets(ctx context.Context, input usecase.ListWalletsInput) ([]*domain.Wallet, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
	SetWalletStatus(ctx context.Context, id string, status domain.WalletStatus) error
	Fund(ctx context.Context, input usecase.LedgerOpInput) (*domain.Transaction, error)
	Debit(ctx context.Context, input usecase.LedgerOpInput) (*domain.Transaction, error)
	Hold(ctx context.Context, input usecase.LedgerOpInput) (*domain.Transaction, error)
	Release(ctx context.Context, input usecase.LedgerOpInput) (*domain.Transaction, error)
	CancelHold(ctx context.Context, input usecase.LedgerOpInput) (*domain.Transaction, error)
}

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService) *WalletHandler {
	return &WalletHandler{walletUC: walletUC}
}

// Create creates a new wallet.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletFromDomain(wallet))
}

// Get retrieves a wallet by ID.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// List lists wallets.
func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	wallets, err := h.walletUC.ListWallets(r.Context(), usecase.ListWalletsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list wallets", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListWalletsResponse{
		Wallets: dto.WalletsFromDomain(wallets),
		Total:   int64(len(wallets)),
	})
}

// ListTransactions lists a wallet's ledger entries.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	txns, err := h.walletUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		WalletID: id,
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txns),
		Total:        int64(len(txns)),
	})
}

// SetStatus enables or disables a wallet.
func (h *WalletHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	var req dto.SetWalletStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	status := domain.WalletStatus(req.Status)
	if status != domain.WalletStatusActive && status != domain.WalletStatusDisabled {
		writeError(w, http.StatusBadRequest, "invalid status", req.Status)
		return
	}

	if err := h.walletUC.SetWalletStatus(r.Context(), id, status); err != nil {
		writeError(w, mapDomainError(err), "failed to update wallet status", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Fund credits a wallet.
func (h *WalletHandler) Fund(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, h.walletUC.Fund, "failed to fund wallet")
}

// Debit removes available funds from a wallet.
func (h *WalletHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, h.walletUC.Debit, "failed to debit wallet")
}

// Hold earmarks available funds.
func (h *WalletHandler) Hold(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, h.walletUC.Hold, "failed to hold funds")
}

// Release pays out held funds.
func (h *WalletHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, h.walletUC.Release, "failed to release funds")
}

// CancelHold abandons a hold.
func (h *WalletHandler) CancelHold(w http.ResponseWriter, r *http.Request) {
	h.ledgerOp(w, r, h.walletUC.CancelHold, "failed to cancel hold")
}

func (h *WalletHandler) ledgerOp(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, input usecase.LedgerOpInput) (*domain.Transaction, error),
	failureMessage string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	var req dto.LedgerOpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := op(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), failureMessage, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}
