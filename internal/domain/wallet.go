package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnerType identifies what kind of principal a wallet belongs to.
type OwnerType string

const (
	OwnerTypeUser     OwnerType = "USER"
	OwnerTypeAgent    OwnerType = "AGENT"
	OwnerTypePlatform OwnerType = "PLATFORM"
)

// WalletStatus is the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive   WalletStatus = "ACTIVE"
	WalletStatusDisabled WalletStatus = "DISABLED"
)

// Wallet is a monetary account for a user, agent, or platform organization.
// Reserved is the portion of Balance earmarked by open holds; it never
// exceeds Balance at a committed state.
type Wallet struct {
	ID             string
	OwnerType      OwnerType
	OwnerID        *string
	OrganizationID *string
	Currency       string
	Balance        decimal.Decimal
	Reserved       decimal.Decimal
	Version        int64
	Status         WalletStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Available returns the balance not earmarked by open holds.
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.Reserved)
}

// ValidateMutable checks that the wallet accepts new mutations.
func (w *Wallet) ValidateMutable() error {
	if w.Status != WalletStatusActive {
		return ErrWalletDisabled
	}
	return nil
}

// ValidateSpend checks that amount can be held or debited without
// touching reserved funds.
func (w *Wallet) ValidateSpend(amount decimal.Decimal) error {
	if w.Available().LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateReserved checks that amount is covered by open holds. A
// shortfall means a prior invariant violation, not a user error.
func (w *Wallet) ValidateReserved(amount decimal.Decimal) error {
	if w.Reserved.LessThan(amount) {
		return ErrInconsistentHold
	}
	return nil
}
