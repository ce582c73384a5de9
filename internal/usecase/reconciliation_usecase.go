package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/agoramesh/walletd/internal/domain"
)

// ReconciliationUseCase cross-checks wallet balances against the
// transaction trail. For a consistent wallet:
//
//	balance  = settled credits - settled debits - settled releases
//	reserved = pending holds
type ReconciliationUseCase struct {
	walletRepo WalletRepository
	ledgerRepo LedgerRepository
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(walletRepo WalletRepository, ledgerRepo LedgerRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
	}
}

// ReconciliationReport is the result of checking one wallet.
type ReconciliationReport struct {
	WalletID         string
	Balance          decimal.Decimal
	Reserved         decimal.Decimal
	ExpectedBalance  decimal.Decimal
	ExpectedReserved decimal.Decimal
	Consistent       bool
}

// CheckWallet recomputes a wallet's balances from its transaction trail
// and reports any drift. It is a read-only operation.
func (uc *ReconciliationUseCase) CheckWallet(ctx context.Context, walletID string) (*ReconciliationReport, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	totals, err := uc.ledgerRepo.TotalsByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	expectedBalance := totals.SettledCredits.
		Sub(totals.SettledDebits).
		Sub(totals.SettledReleases)
	expectedReserved := totals.PendingHolds

	return &ReconciliationReport{
		WalletID:         walletID,
		Balance:          wallet.Balance,
		Reserved:         wallet.Reserved,
		ExpectedBalance:  expectedBalance,
		ExpectedReserved: expectedReserved,
		Consistent: wallet.Balance.Equal(expectedBalance) &&
			wallet.Reserved.Equal(expectedReserved),
	}, nil
}

// CheckAll reconciles every wallet, paging through the wallet table.
func (uc *ReconciliationUseCase) CheckAll(ctx context.Context) ([]*ReconciliationReport, error) {
	const pageSize = 200

	var reports []*ReconciliationReport
	for offset := 0; ; offset += pageSize {
		wallets, err := uc.walletRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(wallets) == 0 {
			break
		}

		for _, w := range wallets {
			report, err := uc.CheckWallet(ctx, w.ID)
			if err != nil {
				if err == domain.ErrWalletNotFound {
					continue
				}
				return nil, err
			}
			reports = append(reports, report)
		}

		if len(wallets) < pageSize {
			break
		}
	}

	return reports, nil
}
