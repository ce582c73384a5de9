package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/domain"
)

// WalletRepository defines data access for wallet aggregates.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	CreateTx(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Wallet, error)
	// EnsurePlatform returns the id of the PLATFORM wallet for an
	// organization, inserting candidate if none exists yet. The insert is
	// idempotent (unique constraint on organization+type) so concurrent
	// settlements converge on one wallet.
	EnsurePlatform(ctx context.Context, tx Transaction, candidate *domain.Wallet) (string, error)
	UpdateBalances(ctx context.Context, tx Transaction, id string, balance, reserved decimal.Decimal, updatedAt time.Time) error
	SetStatus(ctx context.Context, id string, status domain.WalletStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

// TransactionRepository defines data access for the append-only ledger trail.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// UpdateStatus transitions a PENDING transaction to a terminal status.
	// Terminal transactions are never mutated.
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, settledAt time.Time) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error)
}

// EscrowRepository defines data access for escrows.
type EscrowRepository interface {
	Create(ctx context.Context, tx Transaction, escrow *domain.Escrow) error
	GetByID(ctx context.Context, id string) (*domain.Escrow, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Escrow, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.EscrowStatus, releasedAt *time.Time) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Escrow, error)
}

// OrganizationRepository defines data access for organizations.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
}

// WalletTotals are the reconciliation sums of a wallet's trail.
type WalletTotals struct {
	SettledCredits  decimal.Decimal
	SettledDebits   decimal.Decimal
	SettledReleases decimal.Decimal
	PendingHolds    decimal.Decimal
}

// LedgerRepository defines ledger-wide read operations.
type LedgerRepository interface {
	TotalsByWallet(ctx context.Context, walletID string) (*WalletTotals, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on retryable storage conflicts
// (deadlock, serialization failure) a bounded number of times, then
// surfaces the failure as domain.ErrContention.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// FeeResolver resolves the settlement fee rate for an organization.
type FeeResolver interface {
	Resolve(ctx context.Context, organizationID *string) (int64, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
