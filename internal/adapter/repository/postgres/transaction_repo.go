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

const transactionColumns = `id, wallet_id, type, status, amount, reference, created_at, settled_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create appends a ledger entry inside the caller's transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	_, err := pgxTxFrom(tx).Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		txn.ID,
		txn.WalletID,
		string(txn.Type),
		string(txn.Status),
		decimalToNumeric(txn.Amount),
		txn.Reference,
		timeToPgTimestamptz(txn.CreatedAt),
		timePtrToPgTimestamptz(txn.SettledAt),
	)
	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// UpdateStatus transitions a PENDING transaction to a terminal status.
// The WHERE clause guards terminal entries from mutation.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, settledAt time.Time) error {
	var settled pgtype.Timestamptz
	if status == domain.TransactionStatusSettled {
		settled = timeToPgTimestamptz(settledAt)
	}

	tag, err := pgxTxFrom(tx).Exec(ctx,
		`UPDATE transactions SET status = $2, settled_at = $3 WHERE id = $1 AND status = $4`,
		id, string(status), settled, string(domain.TransactionStatusPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// ListByWallet retrieves a wallet's transactions, newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn       domain.Transaction
		txnType   string
		status    string
		amount    pgtype.Numeric
		createdAt pgtype.Timestamptz
		settledAt pgtype.Timestamptz
	)

	err := row.Scan(
		&txn.ID, &txn.WalletID, &txnType, &status, &amount,
		&txn.Reference, &createdAt, &settledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	txn.Type = domain.TransactionType(txnType)
	txn.Status = domain.TransactionStatus(status)
	txn.Amount = numericToDecimal(amount)
	txn.CreatedAt = createdAt.Time
	txn.SettledAt = pgTimestamptzToTimePtr(settledAt)

	return &txn, nil
}
