package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/infrastructure/metrics"
)

// EscrowUseCase orchestrates two-party conditional transfers on top of
// the wallet ledger primitives: hold at negotiation time, then settle
// (move held funds, extract fees, credit the platform) or cancel.
//
// Multi-wallet operations lock wallet rows in ascending id order so
// concurrent settlements over overlapping wallet pairs cannot deadlock.
type EscrowUseCase struct {
	txManager     TransactionManager
	ledger        *WalletUseCase
	walletRepo    WalletRepository
	escrowRepo    EscrowRepository
	outboxRepo    OutboxRepository
	auditRepo     AuditRepository
	feeResolver   FeeResolver
	idGen         IDGenerator
	retrier       Retrier
	metrics       *metrics.Metrics
	platformOrgID string
}

// EscrowConfig holds dependencies for the EscrowUseCase.
type EscrowConfig struct {
	TxManager   TransactionManager
	Ledger      *WalletUseCase
	WalletRepo  WalletRepository
	EscrowRepo  EscrowRepository
	OutboxRepo  OutboxRepository
	AuditRepo   AuditRepository
	FeeResolver FeeResolver
	IDGen       IDGenerator
	Retrier     Retrier
	Metrics     *metrics.Metrics
	// PlatformOrgID is the organization that collects fees when neither
	// counterparty belongs to one.
	PlatformOrgID string
}

// NewEscrowUseCase creates a new EscrowUseCase.
func NewEscrowUseCase(cfg EscrowConfig) *EscrowUseCase {
	return &EscrowUseCase{
		txManager:     cfg.TxManager,
		ledger:        cfg.Ledger,
		walletRepo:    cfg.WalletRepo,
		escrowRepo:    cfg.EscrowRepo,
		outboxRepo:    cfg.OutboxRepo,
		auditRepo:     cfg.AuditRepo,
		feeResolver:   cfg.FeeResolver,
		idGen:         cfg.IDGen,
		retrier:       cfg.Retrier,
		metrics:       cfg.Metrics,
		platformOrgID: cfg.PlatformOrgID,
	}
}

// CreateEscrowInput represents input for creating an escrow.
type CreateEscrowInput struct {
	SourceWalletID      string
	DestinationWalletID string
	Amount              decimal.Decimal
	Reference           string
}

// CreateEscrow holds the amount on the source wallet and records the
// escrow in HELD status. If the hold fails, no escrow is created.
func (uc *EscrowUseCase) CreateEscrow(ctx context.Context, input CreateEscrowInput) (*domain.Escrow, error) {
	if input.SourceWalletID == input.DestinationWalletID {
		return nil, domain.ErrSameWallet
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateReference(input.Reference); err != nil {
		return nil, err
	}

	var escrow *domain.Escrow
	err := uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		wallets, err := uc.lockWallets(txCtx, tx, []string{input.SourceWalletID, input.DestinationWalletID})
		if err != nil {
			return err
		}
		source := wallets[input.SourceWalletID]
		destination := wallets[input.DestinationWalletID]

		if source.Currency != destination.Currency {
			return domain.ErrCurrencyMismatch
		}
		if err := source.ValidateMutable(); err != nil {
			return err
		}
		if err := destination.ValidateMutable(); err != nil {
			return err
		}

		now := time.Now().UTC()
		holdTxn, err := uc.ledger.holdLocked(txCtx, tx, source, LedgerOpInput{
			WalletID:  source.ID,
			Amount:    input.Amount,
			Reference: input.Reference,
		}, now)
		if err != nil {
			return err
		}

		esc := &domain.Escrow{
			ID:                  uc.idGen.Generate(),
			SourceWalletID:      input.SourceWalletID,
			DestinationWalletID: input.DestinationWalletID,
			Amount:              input.Amount,
			Status:              domain.EscrowStatusHeld,
			HoldTransactionID:   holdTxn.ID,
			CreatedAt:           now,
		}
		if err := esc.Validate(); err != nil {
			return err
		}
		if err := uc.escrowRepo.Create(txCtx, tx, esc); err != nil {
			return err
		}

		if err := uc.emitEscrowEvent(txCtx, tx, domain.EventTypeEscrowCreated, esc, map[string]any{
			"escrow_id":             esc.ID,
			"source_wallet_id":      esc.SourceWalletID,
			"destination_wallet_id": esc.DestinationWalletID,
			"amount":                esc.Amount.String(),
			"hold_transaction_id":   esc.HoldTransactionID,
		}, now); err != nil {
			return err
		}
		if err := uc.audit(txCtx, tx, domain.AuditActionEscrowCreate, esc.ID, esc, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}
		escrow = esc
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EscrowsCreated.Inc()
	}

	return escrow, nil
}

// Settle completes an escrow: the held amount leaves the source wallet,
// the destination is credited in full, and a fee is debited from each
// counterparty and credited to the platform wallet of the relevant
// organization. The whole settlement is one database transaction; a
// failed fee leg rolls back everything and leaves the escrow HELD.
// Settling a non-HELD escrow is an idempotent no-op.
func (uc *EscrowUseCase) Settle(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	start := time.Now()

	var settled *domain.Escrow
	err := uc.retry(ctx, func() error {
		esc, err := uc.settleOnce(ctx, escrowID)
		if err != nil {
			return err
		}
		settled = esc
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}

	return settled, nil
}

func (uc *EscrowUseCase) settleOnce(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	esc, err := uc.escrowRepo.GetByIDForUpdate(txCtx, tx, escrowID)
	if err != nil {
		return nil, err
	}
	if !esc.IsHeld() {
		// Retried settlements (webhook redelivery and the like) must not
		// double-transfer.
		return esc, nil
	}

	source, err := uc.walletRepo.GetByID(txCtx, esc.SourceWalletID)
	if err != nil {
		return nil, err
	}
	destination, err := uc.walletRepo.GetByID(txCtx, esc.DestinationWalletID)
	if err != nil {
		return nil, err
	}

	feeBps, err := uc.resolveFeeBps(txCtx, source, destination)
	if err != nil {
		return nil, err
	}
	fee := computeFee(esc.Amount, feeBps)

	now := time.Now().UTC()

	walletIDs := []string{esc.SourceWalletID, esc.DestinationWalletID}
	var platformWalletID string
	if fee.IsPositive() {
		platformWalletID, err = uc.ensurePlatformWallet(txCtx, tx, source, destination, now)
		if err != nil {
			return nil, err
		}
		walletIDs = append(walletIDs, platformWalletID)
	}

	wallets, err := uc.lockWallets(txCtx, tx, walletIDs)
	if err != nil {
		return nil, err
	}
	source = wallets[esc.SourceWalletID]
	destination = wallets[esc.DestinationWalletID]

	for _, w := range wallets {
		if err := w.ValidateMutable(); err != nil {
			return nil, err
		}
	}

	// Principal transfer: held amount leaves source, destination is
	// credited in full.
	if _, err := uc.ledger.releaseLocked(txCtx, tx, source, LedgerOpInput{
		WalletID:          source.ID,
		Amount:            esc.Amount,
		Reference:         "escrow:" + esc.ID,
		HoldTransactionID: esc.HoldTransactionID,
	}, now); err != nil {
		return nil, err
	}
	if _, err := uc.ledger.fundLocked(txCtx, tx, destination, LedgerOpInput{
		WalletID:  destination.ID,
		Amount:    esc.Amount,
		Reference: "escrow:" + esc.ID,
	}, now); err != nil {
		return nil, err
	}

	// Fee split: both counterparties pay the fee, the platform wallet
	// collects both sides. Either side failing the debit precondition
	// aborts the whole settlement.
	if fee.IsPositive() {
		feeRef := "escrow-fee:" + esc.ID
		if _, err := uc.ledger.debitLocked(txCtx, tx, source, LedgerOpInput{
			WalletID: source.ID, Amount: fee, Reference: feeRef,
		}, now); err != nil {
			return nil, err
		}
		if _, err := uc.ledger.debitLocked(txCtx, tx, destination, LedgerOpInput{
			WalletID: destination.ID, Amount: fee, Reference: feeRef,
		}, now); err != nil {
			return nil, err
		}
		platform := wallets[platformWalletID]
		if _, err := uc.ledger.fundLocked(txCtx, tx, platform, LedgerOpInput{
			WalletID: platform.ID, Amount: fee.Mul(decimal.NewFromInt(2)), Reference: feeRef,
		}, now); err != nil {
			return nil, err
		}
	}

	if err := uc.escrowRepo.UpdateStatus(txCtx, tx, esc.ID, domain.EscrowStatusReleased, &now); err != nil {
		return nil, err
	}

	if err := uc.emitEscrowEvent(txCtx, tx, domain.EventTypeEscrowSettled, esc, map[string]any{
		"escrow_id":             esc.ID,
		"source_wallet_id":      esc.SourceWalletID,
		"destination_wallet_id": esc.DestinationWalletID,
		"amount":                esc.Amount.String(),
		"fee":                   fee.String(),
		"fee_basis_points":      feeBps,
	}, now); err != nil {
		return nil, err
	}
	if err := uc.audit(txCtx, tx, domain.AuditActionEscrowSettle, esc.ID, esc, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EscrowsSettled.Inc()
		amt, _ := esc.Amount.Float64()
		uc.metrics.SettlementAmount.Observe(amt)
		if fee.IsPositive() {
			uc.metrics.FeesCollected.Inc()
		}
	}

	esc.Status = domain.EscrowStatusReleased
	esc.ReleasedAt = &now
	return esc, nil
}

// Cancel releases the hold without transferring funds. Cancelling a
// non-HELD escrow is an idempotent no-op.
func (uc *EscrowUseCase) Cancel(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	var cancelled *domain.Escrow
	err := uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		esc, err := uc.escrowRepo.GetByIDForUpdate(txCtx, tx, escrowID)
		if err != nil {
			return err
		}
		if !esc.IsHeld() {
			cancelled = esc
			return nil
		}

		source, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, esc.SourceWalletID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := uc.ledger.cancelHoldLocked(txCtx, tx, source, LedgerOpInput{
			WalletID:          source.ID,
			Amount:            esc.Amount,
			Reference:         "escrow-cancel:" + esc.ID,
			HoldTransactionID: esc.HoldTransactionID,
		}, now); err != nil {
			return err
		}

		if err := uc.escrowRepo.UpdateStatus(txCtx, tx, esc.ID, domain.EscrowStatusCancelled, nil); err != nil {
			return err
		}

		if err := uc.emitEscrowEvent(txCtx, tx, domain.EventTypeEscrowCancelled, esc, map[string]any{
			"escrow_id":        esc.ID,
			"source_wallet_id": esc.SourceWalletID,
			"amount":           esc.Amount.String(),
		}, now); err != nil {
			return err
		}
		if err := uc.audit(txCtx, tx, domain.AuditActionEscrowCancel, esc.ID, esc, now); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		esc.Status = domain.EscrowStatusCancelled
		cancelled = esc
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil && cancelled != nil && cancelled.Status == domain.EscrowStatusCancelled {
		uc.metrics.EscrowsCancelled.Inc()
	}

	return cancelled, nil
}

// Dispute marks a HELD escrow as DISPUTED, parking it until an external
// resolution flow reinstates the hold or cancels the escrow.
func (uc *EscrowUseCase) Dispute(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	return uc.transition(ctx, escrowID, domain.EscrowStatusHeld, domain.EscrowStatusDisputed, domain.EventTypeEscrowDisputed, domain.ErrEscrowNotHeld)
}

// Reinstate returns a DISPUTED escrow to HELD so it can be settled or
// cancelled.
func (uc *EscrowUseCase) Reinstate(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	return uc.transition(ctx, escrowID, domain.EscrowStatusDisputed, domain.EscrowStatusHeld, "", domain.ErrEscrowNotDispute)
}

func (uc *EscrowUseCase) transition(ctx context.Context, escrowID string, from, to domain.EscrowStatus, eventType string, mismatchErr error) (*domain.Escrow, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	esc, err := uc.escrowRepo.GetByIDForUpdate(txCtx, tx, escrowID)
	if err != nil {
		return nil, err
	}
	if esc.Status != from {
		return nil, mismatchErr
	}

	now := time.Now().UTC()
	if err := uc.escrowRepo.UpdateStatus(txCtx, tx, esc.ID, to, nil); err != nil {
		return nil, err
	}

	if eventType != "" {
		if err := uc.emitEscrowEvent(txCtx, tx, eventType, esc, map[string]any{
			"escrow_id": esc.ID,
			"status":    string(to),
		}, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	esc.Status = to
	return esc, nil
}

// GetEscrow retrieves an escrow by ID.
func (uc *EscrowUseCase) GetEscrow(ctx context.Context, id string) (*domain.Escrow, error) {
	return uc.escrowRepo.GetByID(ctx, id)
}

// ListEscrowsByWalletInput represents input for listing escrows.
type ListEscrowsByWalletInput struct {
	WalletID string
	Limit    int
	Offset   int
}

// ListEscrowsByWallet lists escrows touching a wallet.
func (uc *EscrowUseCase) ListEscrowsByWallet(ctx context.Context, input ListEscrowsByWalletInput) ([]*domain.Escrow, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.escrowRepo.ListByWallet(ctx, input.WalletID, limit, offset)
}

// resolveFeeBps resolves the fee rate preferring the destination's
// organization, then the source's, then the platform default.
func (uc *EscrowUseCase) resolveFeeBps(ctx context.Context, source, destination *domain.Wallet) (int64, error) {
	org := destination.OrganizationID
	if org == nil || *org == "" {
		org = source.OrganizationID
	}
	return uc.feeResolver.Resolve(ctx, org)
}

// ensurePlatformWallet resolves the fee-collecting wallet for the
// settlement's organization context, creating it idempotently inside
// the settlement transaction when absent. A settlement with no
// resolvable organization fails rather than skipping fee collection.
func (uc *EscrowUseCase) ensurePlatformWallet(ctx context.Context, tx Transaction, source, destination *domain.Wallet, now time.Time) (string, error) {
	orgID := ""
	switch {
	case destination.OrganizationID != nil && *destination.OrganizationID != "":
		orgID = *destination.OrganizationID
	case source.OrganizationID != nil && *source.OrganizationID != "":
		orgID = *source.OrganizationID
	default:
		orgID = uc.platformOrgID
	}
	if orgID == "" {
		return "", domain.ErrFeePolicyUnresolved
	}

	candidate := &domain.Wallet{
		ID:             uc.idGen.Generate(),
		OwnerType:      domain.OwnerTypePlatform,
		OrganizationID: &orgID,
		Currency:       source.Currency,
		Balance:        decimal.Zero,
		Reserved:       decimal.Zero,
		Status:         domain.WalletStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return uc.walletRepo.EnsurePlatform(ctx, tx, candidate)
}

// lockWallets acquires FOR UPDATE locks in ascending wallet-id order.
func (uc *EscrowUseCase) lockWallets(ctx context.Context, tx Transaction, ids []string) (map[string]*domain.Wallet, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Strings(unique)

	wallets, err := uc.walletRepo.GetByIDsForUpdate(ctx, tx, unique)
	if err != nil {
		return nil, err
	}
	if len(wallets) != len(unique) {
		return nil, domain.ErrWalletNotFound
	}

	m := make(map[string]*domain.Wallet, len(wallets))
	for _, w := range wallets {
		m[w.ID] = w
	}
	return m, nil
}

func (uc *EscrowUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier != nil {
		return uc.retrier.Retry(ctx, op)
	}
	return op()
}

// computeFee computes the per-side fee: amount x bps / 10000, rounded
// to two decimal places half-up. A zero result at low rates and small
// amounts is acceptable.
func computeFee(amount decimal.Decimal, feeBps int64) decimal.Decimal {
	if feeBps <= 0 {
		return decimal.Zero
	}
	return amount.
		Mul(decimal.NewFromInt(feeBps)).
		Div(decimal.NewFromInt(BasisPointDivisor)).
		Round(FeeRoundingPlaces)
}

func (uc *EscrowUseCase) emitEscrowEvent(ctx context.Context, tx Transaction, eventType string, esc *domain.Escrow, payload map[string]any, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   esc.ID,
		AggregateType: domain.AggregateTypeEscrow,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *EscrowUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceID string, after any, now time.Time) error {
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
		ResourceType: "escrow",
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}
	return uc.auditRepo.CreateTx(ctx, tx, log)
}
