package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID             string          `json:"id"`
	OwnerType      string          `json:"owner_type"`
	OwnerID        *string         `json:"owner_id,omitempty"`
	OrganizationID *string         `json:"organization_id,omitempty"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	Reserved       decimal.Decimal `json:"reserved"`
	Available      decimal.Decimal `json:"available"`
	Version        int64           `json:"version"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:             w.ID,
		OwnerType:      string(w.OwnerType),
		OwnerID:        w.OwnerID,
		OrganizationID: w.OrganizationID,
		Currency:       w.Currency,
		Balance:        w.Balance,
		Reserved:       w.Reserved,
		Available:      w.Available(),
		Version:        w.Version,
		Status:         string(w.Status),
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

// WalletsFromDomain converts domain wallets to responses.
func WalletsFromDomain(wallets []*domain.Wallet) []*WalletResponse {
	result := make([]*WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromDomain(w)
	}
	return result
}

// ListWalletsResponse wraps a wallet listing.
type ListWalletsResponse struct {
	Wallets []*WalletResponse `json:"wallets"`
	Total   int64             `json:"total"`
}

// TransactionResponse represents a ledger entry in API responses.
type TransactionResponse struct {
	ID        string          `json:"id"`
	WalletID  string          `json:"wallet_id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	SettledAt *time.Time      `json:"settled_at,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:        t.ID,
		WalletID:  t.WalletID,
		Type:      string(t.Type),
		Status:    string(t.Status),
		Amount:    t.Amount,
		Reference: t.Reference,
		CreatedAt: t.CreatedAt,
		SettledAt: t.SettledAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a transaction listing.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// EscrowResponse represents an escrow in API responses.
type EscrowResponse struct {
	ID                  string          `json:"id"`
	SourceWalletID      string          `json:"source_wallet_id"`
	DestinationWalletID string          `json:"destination_wallet_id"`
	Amount              decimal.Decimal `json:"amount"`
	Status              string          `json:"status"`
	HoldTransactionID   string          `json:"hold_transaction_id"`
	CreatedAt           time.Time       `json:"created_at"`
	ReleasedAt          *time.Time      `json:"released_at,omitempty"`
}

// EscrowFromDomain converts a domain escrow to a response.
func EscrowFromDomain(e *domain.Escrow) *EscrowResponse {
	return &EscrowResponse{
		ID:                  e.ID,
		SourceWalletID:      e.SourceWalletID,
		DestinationWalletID: e.DestinationWalletID,
		Amount:              e.Amount,
		Status:              string(e.Status),
		HoldTransactionID:   e.HoldTransactionID,
		CreatedAt:           e.CreatedAt,
		ReleasedAt:          e.ReleasedAt,
	}
}

// EscrowsFromDomain converts domain escrows to responses.
func EscrowsFromDomain(escrows []*domain.Escrow) []*EscrowResponse {
	result := make([]*EscrowResponse, len(escrows))
	for i, e := range escrows {
		result[i] = EscrowFromDomain(e)
	}
	return result
}

// ListEscrowsResponse wraps an escrow listing.
type ListEscrowsResponse struct {
	Escrows []*EscrowResponse `json:"escrows"`
	Total   int64             `json:"total"`
}

// ReconciliationResponse represents a wallet reconciliation report.
type ReconciliationResponse struct {
	WalletID         string          `json:"wallet_id"`
	Balance          decimal.Decimal `json:"balance"`
	Reserved         decimal.Decimal `json:"reserved"`
	ExpectedBalance  decimal.Decimal `json:"expected_balance"`
	ExpectedReserved decimal.Decimal `json:"expected_reserved"`
	Consistent       bool            `json:"consistent"`
}

// ReconciliationFromReport converts a reconciliation report to a response.
func ReconciliationFromReport(r *usecase.ReconciliationReport) *ReconciliationResponse {
	return &ReconciliationResponse{
		WalletID:         r.WalletID,
		Balance:          r.Balance,
		Reserved:         r.Reserved,
		ExpectedBalance:  r.ExpectedBalance,
		ExpectedReserved: r.ExpectedReserved,
		Consistent:       r.Consistent,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
