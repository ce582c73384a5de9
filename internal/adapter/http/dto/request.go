package dto

import (
	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
)

// CreateWalletRequest represents a request to create a wallet.
type CreateWalletRequest struct {
	OwnerType      string  `json:"owner_type"`
	OwnerID        *string `json:"owner_id,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
	Currency       string  `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWalletRequest) ToUseCaseInput() usecase.CreateWalletInput {
	return usecase.CreateWalletInput{
		OwnerType:      domain.OwnerType(r.OwnerType),
		OwnerID:        r.OwnerID,
		OrganizationID: r.OrganizationID,
		Currency:       r.Currency,
	}
}

// LedgerOpRequest represents a fund, debit, hold, release, or
// cancel-hold request against a wallet.
type LedgerOpRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Reference         string          `json:"reference,omitempty"`
	HoldTransactionID string          `json:"hold_transaction_id,omitempty"`
}

// ToUseCaseInput converts to use case input for the given wallet.
func (r *LedgerOpRequest) ToUseCaseInput(walletID string) usecase.LedgerOpInput {
	return usecase.LedgerOpInput{
		WalletID:          walletID,
		Amount:            r.Amount,
		Reference:         r.Reference,
		HoldTransactionID: r.HoldTransactionID,
	}
}

// SetWalletStatusRequest enables or disables a wallet.
type SetWalletStatusRequest struct {
	Status string `json:"status"`
}

// CreateEscrowRequest represents a request to create an escrow.
type CreateEscrowRequest struct {
	SourceWalletID      string          `json:"source_wallet_id"`
	DestinationWalletID string          `json:"destination_wallet_id"`
	Amount              decimal.Decimal `json:"amount"`
	Reference           string          `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEscrowRequest) ToUseCaseInput() usecase.CreateEscrowInput {
	return usecase.CreateEscrowInput{
		SourceWalletID:      r.SourceWalletID,
		DestinationWalletID: r.DestinationWalletID,
		Amount:              r.Amount,
		Reference:           r.Reference,
	}
}

// CreateOrganizationRequest represents a request to create an organization.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}
