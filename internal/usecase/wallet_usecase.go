package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/infrastructure/metrics"
)

// WalletUseCase implements the single-wallet ledger primitives. Every
// operation reads the wallet under a row lock, validates preconditions
// against that exact state, and writes the new wallet state together
// with the transaction row in one database transaction.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txnRepo    TransactionRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	retrier    Retrier
	metrics    *metrics.Metrics
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		retrier:    retrier,
		metrics:    metrics,
	}
}

// CreateWalletInput represents input for creating a wallet.
type CreateWalletInput struct {
	OwnerType      domain.OwnerType
	OwnerID        *string
	OrganizationID *string
	Currency       string
}

// CreateWallet creates a new empty wallet.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, input CreateWalletInput) (*domain.Wallet, error) {
	if err := domain.ValidateOwnerType(input.OwnerType); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:             uc.idGen.Generate(),
		OwnerType:      input.OwnerType,
		OwnerID:        input.OwnerID,
		OrganizationID: input.OrganizationID,
		Currency:       input.Currency,
		Balance:        decimal.Zero,
		Reserved:       decimal.Zero,
		Version:        0,
		Status:         domain.WalletStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	return wallet, nil
}

// GetWallet retrieves a wallet by ID.
func (uc *WalletUseCase) GetWallet(ctx context.Context, id string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByID(ctx, id)
}

// ListWalletsInput represents input for listing wallets.
type ListWalletsInput struct {
	Limit  int
	Offset int
}

// ListWallets lists wallets with pagination.
func (uc *WalletUseCase) ListWallets(ctx context.Context, input ListWalletsInput) ([]*domain.Wallet, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.walletRepo.List(ctx, limit, offset)
}

// ListTransactionsInput represents input for listing a wallet's trail.
type ListTransactionsInput struct {
	WalletID string
	Limit    int
	Offset   int
}

// ListTransactions lists a wallet's ledger entries.
func (uc *WalletUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.txnRepo.ListByWallet(ctx, input.WalletID, limit, offset)
}

// SetWalletStatus enables or disables a wallet. Disabled wallets reject
// all new mutations but keep their history.
func (uc *WalletUseCase) SetWalletStatus(ctx context.Context, id string, status domain.WalletStatus) error {
	if _, err := uc.walletRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.walletRepo.SetStatus(ctx, id, status, time.Now().UTC())
}

// LedgerOpInput is the common input of the money-movement primitives.
type LedgerOpInput struct {
	WalletID  string
	Amount    decimal.Decimal
	Reference string
	// HoldTransactionID links a release or cancellation back to the hold
	// it closes; when set, the hold transaction is transitioned to its
	// terminal status in the same atomic unit.
	HoldTransactionID string
}

func (in LedgerOpInput) validate() error {
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}
	return domain.ValidateReference(in.Reference)
}

// Fund credits a wallet unconditionally (top-ups).
func (uc *WalletUseCase) Fund(ctx context.Context, input LedgerOpInput) (*domain.Transaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	return uc.runLedgerOp(ctx, "fund", input.WalletID, func(txCtx context.Context, tx Transaction, wallet *domain.Wallet, now time.Time) (*domain.Transaction, error) {
		txn, err := uc.fundLocked(txCtx, tx, wallet, input, now)
		if err != nil {
			return nil, err
		}
		return txn, uc.audit(txCtx, tx, domain.AuditActionWalletFund, wallet.ID, txn, now)
	})
}

// Debit removes available funds from a wallet (direct payouts).
func (uc *WalletUseCase) Debit(ctx context.Context, input LedgerOpInput) (*domain.Transaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	return uc.runLedgerOp(ctx, "debit", input.WalletID, func(txCtx context.Context, tx Transaction, wallet *domain.Wallet, now time.Time) (*domain.Transaction, error) {
		txn, err := uc.debitLocked(txCtx, tx, wallet, input, now)
		if err != nil {
			return nil, err
		}
		return txn, uc.audit(txCtx, tx, domain.AuditActionWalletDebit, wallet.ID, txn, now)
	})
}

// Hold earmarks available funds without moving balance.
func (uc *WalletUseCase) Hold(ctx context.Context, input LedgerOpInput) (*domain.Transaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	return uc.runLedgerOp(ctx, "hold", input.WalletID, func(txCtx context.Context, tx Transaction, wallet *domain.Wallet, now time.Time) (*domain.Transaction, error) {
		txn, err := uc.holdLocked(txCtx, tx, wallet, input, now)
		if err != nil {
			return nil, err
		}
		return txn, uc.audit(txCtx, tx, domain.AuditActionHoldCreate, wallet.ID, txn, now)
	})
}

// Release pays out held funds: reserved and balance both decrease. The
// counterpart of Hold when the transfer completes.
func (uc *WalletUseCase) Release(ctx context.Context, input LedgerOpInput) (*domain.Transaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	return uc.runLedgerOp(ctx, "release", input.WalletID, func(txCtx context.Context, tx Transaction, wallet *domain.Wallet, now time.Time) (*domain.Transaction, error) {
		return uc.releaseLocked(txCtx, tx, wallet, input, now)
	})
}

// CancelHold abandons a hold without moving balance. The counterpart of
// Hold when the transfer does not happen.
func (uc *WalletUseCase) CancelHold(ctx context.Context, input LedgerOpInput) (*domain.Transaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	return uc.runLedgerOp(ctx, "cancel_hold", input.WalletID, func(txCtx context.Context, tx Transaction, wallet *domain.Wallet, now time.Time) (*domain.Transaction, error) {
		return uc.cancelHoldLocked(txCtx, tx, wallet, input, now)
	})
}

// fundLocked applies the fund primitive to an already locked wallet.
// Shared with the escrow settlement engine.
func (uc *WalletUseCase) fundLocked(ctx context.Context, tx Transaction, wallet *domain.Wallet, input LedgerOpInput, now time.Time) (*domain.Transaction, error) {
	txn := uc.newTransaction(wallet.ID, domain.TransactionTypeCredit, domain.TransactionStatusSettled, input, now)
	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	newBalance := wallet.Balance.Add(input.Amount)
	if err := uc.walletRepo.UpdateBalances(ctx, tx, wallet.ID, newBalance, wallet.Reserved, now); err != nil {
		return nil, err
	}
	wallet.Balance = newBalance

	if err := uc.emitWalletEvent(ctx, tx, domain.EventTypeWalletFunded, wallet, txn, now); err != nil {
		return nil, err
	}

	return txn, nil
}

// debitLocked applies the debit primitive to an already locked wallet.
// Shared with the escrow settlement engine.
func (uc *WalletUseCase) debitLocked(ctx context.Context, tx Transaction, wallet *domain.Wallet, input LedgerOpInput, now time.Time) (*domain.Transaction, error) {
	if err := wallet.ValidateSpend(input.Amount); err != nil {
		return nil, err
	}

	txn := uc.newTransaction(wallet.ID, domain.TransactionTypeDebit, domain.TransactionStatusSettled, input, now)
	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	newBalance := wallet.Balance.Sub(input.Amount)
	if err := uc.walletRepo.UpdateBalances(ctx, tx, wallet.ID, newBalance, wallet.Reserved, now); err != nil {
		return nil, err
	}
	wallet.Balance = newBalance

	if err := uc.emitWalletEvent(ctx, tx, domain.EventTypeWalletDebited, wallet, txn, now); err != nil {
		return nil, err
	}

	return txn, nil
}

// holdLocked applies the hold primitive to an already locked wallet.
// Shared with the escrow settlement engine.
func (uc *WalletUseCase) holdLocked(ctx context.Context, tx Transaction, wallet *domain.Wallet, input LedgerOpInput, now time.Time) (*domain.Transaction, error) {
	if err := wallet.ValidateSpend(input.Amount); err != nil {
		return nil, err
	}

	txn := uc.newTransaction(wallet.ID, domain.TransactionTypeHold, domain.TransactionStatusPending, input, now)
	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	newReserved := wallet.Reserved.Add(input.Amount)
	if err := uc.walletRepo.UpdateBalances(ctx, tx, wallet.ID, wallet.Balance, newReserved, now); err != nil {
		return nil, err
	}
	wallet.Reserved = newReserved

	if err := uc.emitWalletEvent(ctx, tx, domain.EventTypeHoldCreated, wallet, txn, now); err != nil {
		return nil, err
	}

	return txn, nil
}

// releaseLocked applies the release primitive to an already locked
// wallet. Shared with the escrow settlement engine.
func (uc *WalletUseCase) releaseLocked(ctx context.Context, tx Transaction, wallet *domain.Wallet, input LedgerOpInput, now time.Time) (*domain.Transaction, error) {
	if err := wallet.ValidateReserved(input.Amount); err != nil {
		return nil, err
	}

	txn := uc.newTransaction(wallet.ID, domain.TransactionTypeRelease, domain.TransactionStatusSettled, input, now)
	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	newBalance := wallet.Balance.Sub(input.Amount)
	newReserved := wallet.Reserved.Sub(input.Amount)
	if err := uc.walletRepo.UpdateBalances(ctx, tx, wallet.ID, newBalance, newReserved, now); err != nil {
		return nil, err
	}
	wallet.Balance = newBalance
	wallet.Reserved = newReserved

	if input.HoldTransactionID != "" {
		if err := uc.txnRepo.UpdateStatus(ctx, tx, input.HoldTransactionID, domain.TransactionStatusSettled, now); err != nil {
			return nil, err
		}
	}

	if err := uc.emitWalletEvent(ctx, tx, domain.EventTypeHoldReleased, wallet, txn, now); err != nil {
		return nil, err
	}

	return txn, nil
}

// cancelHoldLocked applies the cancel-hold primitive to an already
// locked wallet. Shared with the escrow settlement engine.
func (uc *WalletUseCase) cancelHoldLocked(ctx context.Context, tx Transaction, wallet *domain.Wallet, input LedgerOpInput, now time.Time) (*domain.Transaction, error) {
	if err := wallet.ValidateReserved(input.Amount); err != nil {
		return nil, err
	}

	txn := uc.newTransaction(wallet.ID, domain.TransactionTypeRelease, domain.TransactionStatusCancelled, input, now)
	txn.SettledAt = nil
	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	newReserved := wallet.Reserved.Sub(input.Amount)
	if err := uc.walletRepo.UpdateBalances(ctx, tx, wallet.ID, wallet.Balance, newReserved, now); err != nil {
		return nil, err
	}
	wallet.Reserved = newReserved

	if input.HoldTransactionID != "" {
		if err := uc.txnRepo.UpdateStatus(ctx, tx, input.HoldTransactionID, domain.TransactionStatusCancelled, now); err != nil {
			return nil, err
		}
	}

	if err := uc.emitWalletEvent(ctx, tx, domain.EventTypeHoldCancelled, wallet, txn, now); err != nil {
		return nil, err
	}

	return txn, nil
}

type ledgerOpFunc func(txCtx context.Context, tx Transaction, wallet *domain.Wallet, now time.Time) (*domain.Transaction, error)

// runLedgerOp runs a single-wallet primitive: lock the wallet row,
// apply the operation, commit. Retried on storage conflicts.
func (uc *WalletUseCase) runLedgerOp(ctx context.Context, operation, walletID string, op ledgerOpFunc) (*domain.Transaction, error) {
	start := time.Now()

	var txn *domain.Transaction
	run := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, walletID)
		if err != nil {
			return err
		}
		if err := wallet.ValidateMutable(); err != nil {
			return err
		}

		now := time.Now().UTC()
		t, err := op(txCtx, tx, wallet, now)
		if err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}
		txn = t
		return nil
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, run)
	} else {
		err = run()
	}

	if uc.metrics != nil {
		uc.metrics.ObserveLedgerOp(operation, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (uc *WalletUseCase) newTransaction(walletID string, typ domain.TransactionType, status domain.TransactionStatus, input LedgerOpInput, now time.Time) *domain.Transaction {
	txn := &domain.Transaction{
		ID:        uc.idGen.Generate(),
		WalletID:  walletID,
		Type:      typ,
		Status:    status,
		Amount:    input.Amount,
		Reference: input.Reference,
		CreatedAt: now,
	}
	if status == domain.TransactionStatusSettled {
		settledAt := now
		txn.SettledAt = &settledAt
	}
	return txn
}

func (uc *WalletUseCase) emitWalletEvent(ctx context.Context, tx Transaction, eventType string, wallet *domain.Wallet, txn *domain.Transaction, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   wallet.ID,
		AggregateType: domain.AggregateTypeWallet,
		EventType:     eventType,
		Payload: map[string]any{
			"wallet_id":      wallet.ID,
			"transaction_id": txn.ID,
			"amount":         txn.Amount.String(),
			"currency":       wallet.Currency,
			"reference":      txn.Reference,
		},
		CreatedAt: now,
		Published: false,
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *WalletUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceID string, after any, now time.Time) error {
	if uc.auditRepo == nil {
		return nil
	}

	actor := "system"
	if a, ok := domain.ActorFromContext(ctx); ok {
		actor = a
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		Actor:        actor,
		Action:       string(action),
		ResourceType: "wallet",
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}
	return uc.auditRepo.CreateTx(ctx, tx, log)
}
