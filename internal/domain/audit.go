package domain

import (
	"context"
	"encoding/json"
	"time"
)

type actorContextKey struct{}

// WithActor attaches the acting principal to the context for audit trails.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the acting principal, if any.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(string)
	return actor, ok && actor != ""
}

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	Actor        string // Who performed the action (caller id or "system")
	Action       string // What action (wallet.fund, escrow.settle, etc.)
	ResourceType string // Type of resource (wallet, escrow, transaction)
	ResourceID   string // ID of the resource
	RequestID    string // Request ID for tracing
	BeforeState  JSON   // State before the action
	AfterState   JSON   // State after the action
	Status       string // success, failure, error
	ErrorMessage string // If status=error, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionWalletCreate  AuditAction = "wallet.create"
	AuditActionWalletFund    AuditAction = "wallet.fund"
	AuditActionWalletDebit   AuditAction = "wallet.debit"
	AuditActionWalletDisable AuditAction = "wallet.disable"

	AuditActionHoldCreate AuditAction = "hold.create"
	AuditActionHoldCancel AuditAction = "hold.cancel"

	AuditActionEscrowCreate AuditAction = "escrow.create"
	AuditActionEscrowSettle AuditAction = "escrow.settle"
	AuditActionEscrowCancel AuditAction = "escrow.cancel"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}
