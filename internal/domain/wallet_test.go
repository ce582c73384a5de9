package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestWallet_Available(t *testing.T) {
	w := &Wallet{
		Balance:  decimal.NewFromInt(100),
		Reserved: decimal.NewFromInt(30),
	}

	expected := decimal.NewFromInt(70)
	if !w.Available().Equal(expected) {
		t.Errorf("expected available %s, got %s", expected, w.Available())
	}
}

func TestWallet_ValidateSpend(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		reserved    decimal.Decimal
		amount      decimal.Decimal
		expectError bool
	}{
		{
			name:        "spend within available",
			balance:     decimal.NewFromInt(100),
			reserved:    decimal.Zero,
			amount:      decimal.NewFromInt(50),
			expectError: false,
		},
		{
			name:        "spend exact available",
			balance:     decimal.NewFromInt(100),
			reserved:    decimal.NewFromInt(40),
			amount:      decimal.NewFromInt(60),
			expectError: false,
		},
		{
			name:        "spend more than available",
			balance:     decimal.NewFromInt(100),
			reserved:    decimal.Zero,
			amount:      decimal.NewFromInt(150),
			expectError: true,
		},
		{
			name:        "reserved funds are not spendable",
			balance:     decimal.NewFromInt(100),
			reserved:    decimal.NewFromInt(80),
			amount:      decimal.NewFromInt(30),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Wallet{
				Balance:  tt.balance,
				Reserved: tt.reserved,
			}

			err := w.ValidateSpend(tt.amount)

			if tt.expectError && err != ErrInsufficientFunds {
				t.Errorf("expected ErrInsufficientFunds, got %v", err)
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWallet_ValidateReserved(t *testing.T) {
	w := &Wallet{
		Balance:  decimal.NewFromInt(100),
		Reserved: decimal.NewFromInt(30),
	}

	if err := w.ValidateReserved(decimal.NewFromInt(30)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := w.ValidateReserved(decimal.NewFromInt(31)); err != ErrInconsistentHold {
		t.Errorf("expected ErrInconsistentHold, got %v", err)
	}
}

func TestWallet_ValidateMutable(t *testing.T) {
	active := &Wallet{Status: WalletStatusActive}
	if err := active.ValidateMutable(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	disabled := &Wallet{Status: WalletStatusDisabled}
	if err := disabled.ValidateMutable(); err != ErrWalletDisabled {
		t.Errorf("expected ErrWalletDisabled, got %v", err)
	}
}
