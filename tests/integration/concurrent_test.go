package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/adapter/repository/postgres"
	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
	"github.com/agoramesh/walletd/tests/testutil"
)

func TestConcurrentLedgerOps(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	walletRepo := postgres.NewWalletRepository(testDB.Pool)
	walletUC := newWalletUseCase(testDB)

	t.Run("concurrent debits never overdraw", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		// Balance covers exactly 10 of the 20 attempted debits.
		w := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, "", "USD", decimal.NewFromInt(100))

		numDebits := 20
		debitAmount := decimal.NewFromInt(10)

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(numDebits)

		for range numDebits {
			go func() {
				defer wg.Done()

				_, err := walletUC.Debit(ctx, usecase.LedgerOpInput{
					WalletID: w.ID,
					Amount:   debitAmount,
				})
				if err == nil {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != 10 {
			t.Errorf("expected 10 successful debits, got %d", successCount.Load())
		}

		updated, _ := walletRepo.GetByID(ctx, w.ID)
		if !updated.Balance.Equal(decimal.Zero) {
			t.Errorf("expected balance 0, got %s", updated.Balance)
		}
	})

	t.Run("concurrent holds respect available balance", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		w := testDB.CreateTestWallet(ctx, domain.OwnerTypeAgent, "", "USD", decimal.NewFromInt(50))

		numHolds := 10
		holdAmount := decimal.NewFromInt(10)

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(numHolds)

		for range numHolds {
			go func() {
				defer wg.Done()

				_, err := walletUC.Hold(ctx, usecase.LedgerOpInput{
					WalletID: w.ID,
					Amount:   holdAmount,
				})
				if err == nil {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != 5 {
			t.Errorf("expected 5 successful holds, got %d", successCount.Load())
		}

		updated, _ := walletRepo.GetByID(ctx, w.ID)
		if !updated.Reserved.Equal(decimal.NewFromInt(50)) {
			t.Errorf("expected reserved 50, got %s", updated.Reserved)
		}
		if !updated.Available().IsZero() {
			t.Errorf("expected available 0, got %s", updated.Available())
		}
	})

	t.Run("opposing escrows settle without deadlock", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		a := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, "", "USD", decimal.NewFromInt(1000))
		b := testDB.CreateTestWallet(ctx, domain.OwnerTypeUser, "", "USD", decimal.NewFromInt(1000))

		escrowUC := newEscrowUseCase(testDB, 0, "")

		numPairs := 25
		amount := decimal.NewFromInt(10)

		escrowIDs := make(chan string, numPairs*2)

		var wg sync.WaitGroup
		wg.Add(numPairs * 2)

		for range numPairs {
			go func() {
				defer wg.Done()

				esc, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
					SourceWalletID:      a.ID,
					DestinationWalletID: b.ID,
					Amount:              amount,
				})
				if err == nil {
					escrowIDs <- esc.ID
				}
			}()
			go func() {
				defer wg.Done()

				esc, err := escrowUC.CreateEscrow(ctx, usecase.CreateEscrowInput{
					SourceWalletID:      b.ID,
					DestinationWalletID: a.ID,
					Amount:              amount,
				})
				if err == nil {
					escrowIDs <- esc.ID
				}
			}()
		}

		wg.Wait()
		close(escrowIDs)

		var created int
		var settleWG sync.WaitGroup
		var settled atomic.Int32

		for id := range escrowIDs {
			created++
			settleWG.Add(1)
			go func(escrowID string) {
				defer settleWG.Done()

				if _, err := escrowUC.Settle(ctx, escrowID); err == nil {
					settled.Add(1)
				}
			}(id)
		}

		settleWG.Wait()

		if created != numPairs*2 {
			t.Errorf("expected %d escrows created, got %d", numPairs*2, created)
		}
		if settled.Load() != int32(created) {
			t.Errorf("expected %d settled escrows, got %d", created, settled.Load())
		}

		// Equal opposite settlements with no fees leave balances unchanged.
		aAfter, _ := walletRepo.GetByID(ctx, a.ID)
		bAfter, _ := walletRepo.GetByID(ctx, b.ID)

		if !aAfter.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected a balance 1000, got %s", aAfter.Balance)
		}
		if !bAfter.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected b balance 1000, got %s", bAfter.Balance)
		}
	})
}
