package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEscrow_Validate(t *testing.T) {
	tests := []struct {
		name      string
		escrow    Escrow
		errorType error
	}{
		{
			name: "valid escrow",
			escrow: Escrow{
				SourceWalletID:      "wal-1",
				DestinationWalletID: "wal-2",
				Amount:              decimal.NewFromInt(100),
			},
		},
		{
			name: "same wallet",
			escrow: Escrow{
				SourceWalletID:      "wal-1",
				DestinationWalletID: "wal-1",
				Amount:              decimal.NewFromInt(100),
			},
			errorType: ErrSameWallet,
		},
		{
			name: "zero amount",
			escrow: Escrow{
				SourceWalletID:      "wal-1",
				DestinationWalletID: "wal-2",
				Amount:              decimal.Zero,
			},
			errorType: ErrInvalidAmount,
		},
		{
			name: "negative amount",
			escrow: Escrow{
				SourceWalletID:      "wal-1",
				DestinationWalletID: "wal-2",
				Amount:              decimal.NewFromInt(-10),
			},
			errorType: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.escrow.Validate()
			if err != tt.errorType {
				t.Errorf("expected error %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestEscrow_StatusPredicates(t *testing.T) {
	tests := []struct {
		status   EscrowStatus
		held     bool
		terminal bool
	}{
		{EscrowStatusHeld, true, false},
		{EscrowStatusReleased, false, true},
		{EscrowStatusCancelled, false, true},
		{EscrowStatusDisputed, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			e := &Escrow{Status: tt.status}
			if e.IsHeld() != tt.held {
				t.Errorf("IsHeld: expected %v, got %v", tt.held, e.IsHeld())
			}
			if e.IsTerminal() != tt.terminal {
				t.Errorf("IsTerminal: expected %v, got %v", tt.terminal, e.IsTerminal())
			}
		})
	}
}
