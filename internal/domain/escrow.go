package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus is the lifecycle state of an escrow.
type EscrowStatus string

const (
	EscrowStatusHeld      EscrowStatus = "HELD"
	EscrowStatusReleased  EscrowStatus = "RELEASED"
	EscrowStatusCancelled EscrowStatus = "CANCELLED"
	EscrowStatusDisputed  EscrowStatus = "DISPUTED"
)

// Escrow is a two-party conditional transfer backed by exactly one hold
// on the source wallet. It transitions HELD to RELEASED or CANCELLED at
// most once; settlement and cancellation are no-ops past that point.
type Escrow struct {
	ID                  string
	SourceWalletID      string
	DestinationWalletID string
	Amount              decimal.Decimal
	Status              EscrowStatus
	HoldTransactionID   string
	CreatedAt           time.Time
	ReleasedAt          *time.Time
}

// Validate validates an escrow creation request.
func (e *Escrow) Validate() error {
	if e.SourceWalletID == e.DestinationWalletID {
		return ErrSameWallet
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// IsHeld reports whether the escrow still holds funds awaiting an outcome.
func (e *Escrow) IsHeld() bool {
	return e.Status == EscrowStatusHeld
}

// IsTerminal reports whether the escrow reached a final state.
func (e *Escrow) IsTerminal() bool {
	return e.Status == EscrowStatusReleased || e.Status == EscrowStatusCancelled
}
