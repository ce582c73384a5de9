package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
)

const escrowColumns = `id, source_wallet_id, destination_wallet_id, amount, status, hold_transaction_id, created_at, released_at`

// EscrowRepository implements usecase.EscrowRepository.
type EscrowRepository struct {
	pool *pgxpool.Pool
}

// NewEscrowRepository creates a new EscrowRepository.
func NewEscrowRepository(pool *pgxpool.Pool) *EscrowRepository {
	return &EscrowRepository{pool: pool}
}

// Create creates an escrow inside the caller's transaction.
func (r *EscrowRepository) Create(ctx context.Context, tx usecase.Transaction, escrow *domain.Escrow) error {
	_, err := pgxTxFrom(tx).Exec(ctx,
		`INSERT INTO escrows (`+escrowColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		escrow.ID,
		escrow.SourceWalletID,
		escrow.DestinationWalletID,
		decimalToNumeric(escrow.Amount),
		string(escrow.Status),
		escrow.HoldTransactionID,
		timeToPgTimestamptz(escrow.CreatedAt),
		timePtrToPgTimestamptz(escrow.ReleasedAt),
	)
	return err
}

// GetByID retrieves an escrow by ID.
func (r *EscrowRepository) GetByID(ctx context.Context, id string) (*domain.Escrow, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE id = $1`, id)
	return scanEscrow(row)
}

// GetByIDForUpdate retrieves an escrow with a FOR UPDATE lock. The lock
// serializes concurrent settle and cancel attempts on the same escrow.
func (r *EscrowRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Escrow, error) {
	row := pgxTxFrom(tx).QueryRow(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE id = $1 FOR UPDATE`, id)
	return scanEscrow(row)
}

// UpdateStatus transitions an escrow's status.
func (r *EscrowRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EscrowStatus, releasedAt *time.Time) error {
	tag, err := pgxTxFrom(tx).Exec(ctx,
		`UPDATE escrows SET status = $2, released_at = $3 WHERE id = $1`,
		id, string(status), timePtrToPgTimestamptz(releasedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEscrowNotFound
	}
	return nil
}

// ListByWallet retrieves escrows where the wallet is either party.
func (r *EscrowRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Escrow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+escrowColumns+` FROM escrows
		 WHERE source_wallet_id = $1 OR destination_wallet_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var escrows []*domain.Escrow
	for rows.Next() {
		escrow, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		escrows = append(escrows, escrow)
	}

	return escrows, rows.Err()
}

func scanEscrow(row pgx.Row) (*domain.Escrow, error) {
	var (
		escrow     domain.Escrow
		amount     pgtype.Numeric
		status     string
		createdAt  pgtype.Timestamptz
		releasedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&escrow.ID, &escrow.SourceWalletID, &escrow.DestinationWalletID,
		&amount, &status, &escrow.HoldTransactionID, &createdAt, &releasedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEscrowNotFound
		}
		return nil, err
	}

	escrow.Amount = numericToDecimal(amount)
	escrow.Status = domain.EscrowStatus(status)
	escrow.CreatedAt = createdAt.Time
	escrow.ReleasedAt = pgTimestamptzToTimePtr(releasedAt)

	return &escrow, nil
}
