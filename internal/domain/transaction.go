package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionTypeCredit  TransactionType = "CREDIT"
	TransactionTypeDebit   TransactionType = "DEBIT"
	TransactionTypeHold    TransactionType = "HOLD"
	TransactionTypeRelease TransactionType = "RELEASE"
)

// TransactionStatus is the settlement state of a ledger entry.
// SETTLED and CANCELLED are terminal; a terminal transaction is never
// mutated, only superseded by new transactions.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSettled   TransactionStatus = "SETTLED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is an immutable ledger entry. A wallet's balance is
// reconcilable from its transactions alone: settled credits minus
// settled debits minus settled releases; reserved equals the sum of
// pending holds.
type Transaction struct {
	ID        string
	WalletID  string
	Type      TransactionType
	Status    TransactionStatus
	Amount    decimal.Decimal
	Reference string
	CreatedAt time.Time
	SettledAt *time.Time
}

// IsTerminal reports whether the transaction can no longer change.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSettled || t.Status == TransactionStatusCancelled
}

// Validate checks invariants on a new transaction.
func (t *Transaction) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
