package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agoramesh/walletd/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository with aggregate
// queries over the transaction trail.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// TotalsByWallet sums a wallet's trail by type and status. The sums feed
// the reconciliation identities:
//
//	balance  = settled CREDIT - settled DEBIT - settled RELEASE
//	reserved = pending HOLD
func (r *LedgerRepository) TotalsByWallet(ctx context.Context, walletID string) (*usecase.WalletTotals, error) {
	var credits, debits, releases, holds pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'CREDIT'  AND status = 'SETTLED'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'DEBIT'   AND status = 'SETTLED'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'RELEASE' AND status = 'SETTLED'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'HOLD'    AND status = 'PENDING'), 0)
		FROM transactions
		WHERE wallet_id = $1`, walletID,
	).Scan(&credits, &debits, &releases, &holds)
	if err != nil {
		return nil, err
	}

	return &usecase.WalletTotals{
		SettledCredits:  numericToDecimal(credits),
		SettledDebits:   numericToDecimal(debits),
		SettledReleases: numericToDecimal(releases),
		PendingHolds:    numericToDecimal(holds),
	}, nil
}
