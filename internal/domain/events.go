package domain

import "time"

// Event types
const (
	EventTypeWalletCreated   = "wallet.created"
	EventTypeWalletFunded    = "wallet.funded"
	EventTypeWalletDebited   = "wallet.debited"
	EventTypeHoldCreated     = "hold.created"
	EventTypeHoldReleased    = "hold.released"
	EventTypeHoldCancelled   = "hold.cancelled"
	EventTypeEscrowCreated   = "escrow.created"
	EventTypeEscrowSettled   = "escrow.settled"
	EventTypeEscrowCancelled = "escrow.cancelled"
	EventTypeEscrowDisputed  = "escrow.disputed"
)

// Aggregate types
const (
	AggregateTypeWallet = "wallet"
	AggregateTypeEscrow = "escrow"
)

// OutboxEvent represents an event to be published. It is written in the
// same transaction as the ledger mutation it describes.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// WalletFundedEvent payload
type WalletFundedEvent struct {
	WalletID      string `json:"wallet_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Reference     string `json:"reference"`
}

// EscrowSettledEvent payload
type EscrowSettledEvent struct {
	EscrowID            string `json:"escrow_id"`
	SourceWalletID      string `json:"source_wallet_id"`
	DestinationWalletID string `json:"destination_wallet_id"`
	Amount              string `json:"amount"`
	Fee                 string `json:"fee"`
	FeeBasisPoints      int64  `json:"fee_basis_points"`
}

// EscrowCancelledEvent payload
type EscrowCancelledEvent struct {
	EscrowID       string `json:"escrow_id"`
	SourceWalletID string `json:"source_wallet_id"`
	Amount         string `json:"amount"`
}
