package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
)

const walletColumns = `id, owner_type, owner_id, organization_id, currency, balance, reserved, version, status, created_at, updated_at`

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create creates a new wallet.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	_, err := r.pool.Exec(ctx, insertWalletSQL, walletInsertArgs(wallet)...)
	return err
}

// CreateTx creates a new wallet inside an existing transaction.
func (r *WalletRepository) CreateTx(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	_, err := pgxTxFrom(tx).Exec(ctx, insertWalletSQL, walletInsertArgs(wallet)...)
	return err
}

const insertWalletSQL = `
	INSERT INTO wallets (` + walletColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func walletInsertArgs(wallet *domain.Wallet) []any {
	return []any{
		wallet.ID,
		string(wallet.OwnerType),
		stringPtrToText(wallet.OwnerID),
		stringPtrToText(wallet.OrganizationID),
		wallet.Currency,
		decimalToNumeric(wallet.Balance),
		decimalToNumeric(wallet.Reserved),
		wallet.Version,
		string(wallet.Status),
		timeToPgTimestamptz(wallet.CreatedAt),
		timeToPgTimestamptz(wallet.UpdatedAt),
	}
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	return scanWallet(row)
}

// GetByIDForUpdate retrieves a wallet by ID with a FOR UPDATE lock.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	row := pgxTxFrom(tx).QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
	return scanWallet(row)
}

// GetByIDsForUpdate retrieves multiple wallets with FOR UPDATE locks.
// Rows are locked in ascending id order regardless of input order so
// concurrent multi-wallet transactions cannot deadlock on each other.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	rows, err := pgxTxFrom(tx).Query(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wallets := make([]*domain.Wallet, 0, len(ids))
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}

	return wallets, rows.Err()
}

// EnsurePlatform returns the id of the organization's PLATFORM wallet
// in the candidate's currency, inserting candidate if none exists. The
// partial unique index on (organization_id, currency) WHERE owner_type
// = 'PLATFORM' makes the insert a no-op when another transaction won
// the race.
func (r *WalletRepository) EnsurePlatform(ctx context.Context, tx usecase.Transaction, candidate *domain.Wallet) (string, error) {
	pgxTx := pgxTxFrom(tx)

	args := walletInsertArgs(candidate)
	_, err := pgxTx.Exec(ctx, insertWalletSQL+` ON CONFLICT DO NOTHING`, args...)
	if err != nil {
		return "", err
	}

	var id string
	err = pgxTx.QueryRow(ctx,
		`SELECT id FROM wallets WHERE organization_id = $1 AND owner_type = $2 AND currency = $3`,
		stringPtrToText(candidate.OrganizationID), string(domain.OwnerTypePlatform), candidate.Currency,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	return id, nil
}

// UpdateBalances updates balance and reserved in one statement and bumps
// the version.
func (r *WalletRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, id string, balance, reserved decimal.Decimal, updatedAt time.Time) error {
	_, err := pgxTxFrom(tx).Exec(ctx,
		`UPDATE wallets SET balance = $2, reserved = $3, version = version + 1, updated_at = $4 WHERE id = $1`,
		id, decimalToNumeric(balance), decimalToNumeric(reserved), timeToPgTimestamptz(updatedAt))
	return err
}

// SetStatus updates a wallet's lifecycle status.
func (r *WalletRepository) SetStatus(ctx context.Context, id string, status domain.WalletStatus, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE wallets SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

// List retrieves wallets with pagination.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+walletColumns+` FROM wallets ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}

	return wallets, rows.Err()
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		wallet    domain.Wallet
		ownerType string
		ownerID   pgtype.Text
		orgID     pgtype.Text
		balance   pgtype.Numeric
		reserved  pgtype.Numeric
		status    string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&wallet.ID, &ownerType, &ownerID, &orgID, &wallet.Currency,
		&balance, &reserved, &wallet.Version, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	wallet.OwnerType = domain.OwnerType(ownerType)
	wallet.OwnerID = textToStringPtr(ownerID)
	wallet.OrganizationID = textToStringPtr(orgID)
	wallet.Balance = numericToDecimal(balance)
	wallet.Reserved = numericToDecimal(reserved)
	wallet.Status = domain.WalletStatus(status)
	wallet.CreatedAt = createdAt.Time
	wallet.UpdatedAt = updatedAt.Time

	return &wallet, nil
}
