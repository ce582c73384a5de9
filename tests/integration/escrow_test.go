package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/adapter/repository/postgres"
	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
	"github.com/agoramesh/walletd/tests/testutil"
)

func newEscrowUseCase(testDB *testutil.TestDB, defaultFeeBps int64, platformOrgID string) *usecase.EscrowUseCase {
	orgRepo := postgres.NewOrganizationRepository(testDB.Pool)
	feeResolver := usecase.NewFeePolicyUseCase(orgRepo, nil, defaultFeeBps, nil)

	return usecase.NewEscrowUseCase(usecase.EscrowConfig{
		TxManager:     postgres.NewTxManager(testDB.Pool),
		Ledger:        newWalletUseCase(testDB),
		WalletRepo:    postgres.NewWalletRepository(testDB.Pool),
		EscrowRepo:    postgres.NewEscrowRepository(testDB.Pool),
		OutboxRepo:    postgres.NewOutboxRepository(testDB.Pool),
		AuditRepo:     postgres.NewAuditRepository(testDB.Pool),
		FeeResolver:   feeResolver,
		IDGen:         postgres.NewULIDGenerator(),
		Retrier:       postgres.NewRetrier(),
		PlatformOrgID: platformOrgID,
	})
}

func TestEscrowSettlement(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	walletRepo := postgres.NewWalletRepository(testDB.Pool)
	escrowRepo := postgres.NewEscrowRepository(testDB.Pool)
	txnRepo := postgres.NewTransactionRepository(testDB.Pool)

	t.Run("settle with plan fee on both sides", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		// The free plan charges 500 bps per side.
		org := testDB.CreateTestOrganization(ctx, "acme", domain.PlanFree)
		source := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, org.ID, "USD", decimal.NewFromInt(100))
		dest := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, org.ID, "USD", decimal.Zero)

		escrowUC := newEscrowUseCase(testDB, 250, "")

		esc, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
			SourceWalletID:      source.ID,
			DestinationWalletID: dest.ID,
			Amount:              decimal.NewFromInt(30),
			Reference:           "job-42",
		})
		if err != nil {
			t.Fatalf("failed to create escrow: %v", err)
		}
		if esc.Status != domain.EscrowStatusHeld {
			t.Fatalf("expected HELD escrow, got %s", esc.Status)
		}

		srcAfterHold, _ := walletRepo.GetByID(ctx, source.ID)
		if !srcAfterHold.Reserved.Equal(decimal.NewFromInt(30)) {
			t.Errorf("expected reserved 30 after hold, got %s", srcAfterHold.Reserved)
		}

		settled, err := escrowUC.Settle(ctx, esc.ID)
		if err != nil {
			t.Fatalf("failed to settle escrow: %v", err)
		}
		if settled.Status != domain.EscrowStatusReleased {
			t.Fatalf("expected RELEASED escrow, got %s", settled.Status)
		}

		// Fee is 30 * 500/10000 = 1.50 per side.
		srcAfter, _ := walletRepo.GetByID(ctx, source.ID)
		if !srcAfter.Balance.Equal(decimal.RequireFromString("68.50")) {
			t.Errorf("expected source balance 68.50, got %s", srcAfter.Balance)
		}
		if !srcAfter.Reserved.IsZero() {
			t.Errorf("expected source reserved 0, got %s", srcAfter.Reserved)
		}

		destAfter, _ := walletRepo.GetByID(ctx, dest.ID)
		if !destAfter.Balance.Equal(decimal.RequireFromString("28.50")) {
			t.Errorf("expected destination balance 28.50, got %s", destAfter.Balance)
		}

		platform := findPlatformWallet(ctx, t, testDB, org.ID)
		if platform == nil {
			t.Fatalf("expected a platform fee wallet for the organization")
		}
		if !platform.Balance.Equal(decimal.RequireFromString("3.00")) {
			t.Errorf("expected platform balance 3.00, got %s", platform.Balance)
		}

		hold, _ := txnRepo.GetByID(ctx, esc.HoldTransactionID)
		if hold.Status != domain.TransactionStatusSettled {
			t.Errorf("expected hold settled, got %s", hold.Status)
		}
	})

	t.Run("settle is idempotent", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, "", "USD", decimal.NewFromInt(100))
		dest := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, "", "USD", decimal.Zero)

		escrowUC := newEscrowUseCase(testDB, 0, "")

		esc, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
			SourceWalletID:      source.ID,
			DestinationWalletID: dest.ID,
			Amount:              decimal.NewFromInt(25),
		})
		if err != nil {
			t.Fatalf("failed to create escrow: %v", err)
		}

		if _, err := escrowUC.Settle(ctx, esc.ID); err != nil {
			t.Fatalf("first settle failed: %v", err)
		}

		again, err := escrowUC.Settle(ctx, esc.ID)
		if err != nil {
			t.Fatalf("second settle failed: %v", err)
		}
		if again.Status != domain.EscrowStatusReleased {
			t.Errorf("expected RELEASED, got %s", again.Status)
		}

		destAfter, _ := walletRepo.GetByID(ctx, dest.ID)
		if !destAfter.Balance.Equal(decimal.NewFromInt(25)) {
			t.Errorf("expected destination balance 25, got %s", destAfter.Balance)
		}
	})

	t.Run("cancel restores the source wallet", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, "", "USD", decimal.NewFromInt(100))
		dest := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, "", "USD", decimal.Zero)

		escrowUC := newEscrowUseCase(testDB, 0, "")

		esc, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
			SourceWalletID:      source.ID,
			DestinationWalletID: dest.ID,
			Amount:              decimal.NewFromInt(40),
		})
		if err != nil {
			t.Fatalf("failed to create escrow: %v", err)
		}

		cancelled, err := escrowUC.Cancel(ctx, esc.ID)
		if err != nil {
			t.Fatalf("failed to cancel escrow: %v", err)
		}
		if cancelled.Status != domain.EscrowStatusCancelled {
			t.Errorf("expected CANCELLED, got %s", cancelled.Status)
		}

		srcAfter, _ := walletRepo.GetByID(ctx, source.ID)
		if !srcAfter.Balance.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected source balance 100, got %s", srcAfter.Balance)
		}
		if !srcAfter.Reserved.IsZero() {
			t.Errorf("expected source reserved 0, got %s", srcAfter.Reserved)
		}

		hold, _ := txnRepo.GetByID(ctx, esc.HoldTransactionID)
		if hold.Status != domain.TransactionStatusCancelled {
			t.Errorf("expected cancelled hold, got %s", hold.Status)
		}
	})

	t.Run("disputed escrow blocks settlement until reinstated", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, "", "USD", decimal.NewFromInt(100))
		dest := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, "", "USD", decimal.Zero)

		escrowUC := newEscrowUseCase(testDB, 0, "")

		esc, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
			SourceWalletID:      source.ID,
			DestinationWalletID: dest.ID,
			Amount:              decimal.NewFromInt(10),
		})
		if err != nil {
			t.Fatalf("failed to create escrow: %v", err)
		}

		if _, err := escrowUC.Dispute(ctx, esc.ID); err != nil {
			t.Fatalf("failed to dispute escrow: %v", err)
		}

		// Settle on a disputed escrow is a no-op.
		stuck, err := escrowUC.Settle(ctx, esc.ID)
		if err != nil {
			t.Fatalf("settle on disputed escrow errored: %v", err)
		}
		if stuck.Status != domain.EscrowStatusDisputed {
			t.Errorf("expected DISPUTED, got %s", stuck.Status)
		}

		destAfter, _ := walletRepo.GetByID(ctx, dest.ID)
		if !destAfter.Balance.IsZero() {
			t.Errorf("expected no funds moved while disputed, got %s", destAfter.Balance)
		}

		if _, err := escrowUC.Reinstate(ctx, esc.ID); err != nil {
			t.Fatalf("failed to reinstate escrow: %v", err)
		}

		settled, err := escrowUC.Settle(ctx, esc.ID)
		if err != nil {
			t.Fatalf("settle after reinstate failed: %v", err)
		}
		if settled.Status != domain.EscrowStatusReleased {
			t.Errorf("expected RELEASED, got %s", settled.Status)
		}
	})

	t.Run("failed settlement leaves wallet state unchanged", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		org := testDB.CreateTestOrganization(ctx, "acme", domain.PlanFree)
		source := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, org.ID, "USD", decimal.NewFromInt(100))
		dest := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, org.ID, "USD", decimal.Zero)

		escrowUC := newEscrowUseCase(testDB, 250, "")
		walletUC := newWalletUseCase(testDB)

		esc, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
			SourceWalletID:      source.ID,
			DestinationWalletID: dest.ID,
			Amount:              decimal.NewFromInt(10),
		})
		if err != nil {
			t.Fatalf("failed to create escrow: %v", err)
		}

		// Drain the source so it covers the release but not the
		// 0.50 fee on top.
		if _, err := walletUC.Debit(ctx, usecase.LedgerOpInput{
			WalletID: source.ID,
			Amount:   decimal.NewFromInt(90),
		}); err != nil {
			t.Fatalf("failed to drain source: %v", err)
		}

		if _, err := escrowUC.Settle(ctx, esc.ID); !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		srcAfter, _ := walletRepo.GetByID(ctx, source.ID)
		if !srcAfter.Balance.Equal(decimal.NewFromInt(10)) {
			t.Errorf("expected source balance 10 after rollback, got %s", srcAfter.Balance)
		}
		if !srcAfter.Reserved.Equal(decimal.NewFromInt(10)) {
			t.Errorf("expected source reserved 10 after rollback, got %s", srcAfter.Reserved)
		}

		destAfter, _ := walletRepo.GetByID(ctx, dest.ID)
		if !destAfter.Balance.IsZero() {
			t.Errorf("expected destination untouched, got balance %s", destAfter.Balance)
		}

		stored, _ := escrowRepo.GetByID(ctx, esc.ID)
		if stored.Status != domain.EscrowStatusHeld {
			t.Errorf("expected escrow still HELD, got %s", stored.Status)
		}

		hold, _ := txnRepo.GetByID(ctx, esc.HoldTransactionID)
		if hold.Status != domain.TransactionStatusPending {
			t.Errorf("expected hold still PENDING, got %s", hold.Status)
		}

		if platform := findPlatformWallet(ctx, t, testDB, org.ID); platform != nil {
			t.Errorf("expected no platform wallet after rolled-back settlement")
		}
	})

	t.Run("platform fee wallets are per currency", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		org := testDB.CreateTestOrganization(ctx, "acme", domain.PlanFree)
		usdSource := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, org.ID, "USD", decimal.NewFromInt(100))
		usdDest := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, org.ID, "USD", decimal.Zero)
		eurSource := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, org.ID, "EUR", decimal.NewFromInt(100))
		eurDest := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, org.ID, "EUR", decimal.Zero)

		escrowUC := newEscrowUseCase(testDB, 250, "")

		for _, pair := range []struct{ source, dest string }{
			{usdSource.ID, usdDest.ID},
			{eurSource.ID, eurDest.ID},
		} {
			esc, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
				SourceWalletID:      pair.source,
				DestinationWalletID: pair.dest,
				Amount:              decimal.NewFromInt(20),
			})
			if err != nil {
				t.Fatalf("failed to create escrow: %v", err)
			}
			if _, err := escrowUC.Settle(ctx, esc.ID); err != nil {
				t.Fatalf("failed to settle escrow: %v", err)
			}
		}

		// 20 at 500 bps is 1.00 per side, 2.00 per settlement, kept
		// in a fee wallet of the settlement's own currency.
		byCurrency := map[string]decimal.Decimal{}
		wallets, err := walletRepo.List(ctx, 100, 0)
		if err != nil {
			t.Fatalf("failed to list wallets: %v", err)
		}
		for _, w := range wallets {
			if w.OwnerType == domain.OwnerTypePlatform {
				byCurrency[w.Currency] = w.Balance
			}
		}

		if len(byCurrency) != 2 {
			t.Fatalf("expected one platform wallet per currency, got %d", len(byCurrency))
		}
		for _, currency := range []string{"USD", "EUR"} {
			if !byCurrency[currency].Equal(decimal.NewFromInt(2)) {
				t.Errorf("expected %s platform balance 2, got %s", currency, byCurrency[currency])
			}
		}
	})

	t.Run("insufficient available funds rejects creation", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, "", "USD", decimal.NewFromInt(20))
		dest := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, "", "USD", decimal.Zero)

		escrowUC := newEscrowUseCase(testDB, 0, "")

		_, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
			SourceWalletID:      source.ID,
			DestinationWalletID: dest.ID,
			Amount:              decimal.NewFromInt(50),
		})
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Errorf("expected ErrInsufficientFunds, got %v", err)
		}

		escrows, err := escrowRepo.ListByWallet(ctx, source.ID, 10, 0)
		if err != nil {
			t.Fatalf("failed to list escrows: %v", err)
		}
		if len(escrows) != 0 {
			t.Errorf("expected no escrow rows after failed creation, got %d", len(escrows))
		}
	})
}

func findPlatformWallet(ctx context.Context, t *testing.T, testDB *testutil.TestDB, orgID string) *domain.Wallet {
	t.Helper()

	walletRepo := postgres.NewWalletRepository(testDB.Pool)
	wallets, err := walletRepo.List(ctx, 100, 0)
	if err != nil {
		t.Fatalf("failed to list wallets: %v", err)
	}

	for _, w := range wallets {
		if w.OwnerType == domain.OwnerTypePlatform && w.OrganizationID != nil && *w.OrganizationID == orgID {
			return w
		}
	}
	return nil
}
