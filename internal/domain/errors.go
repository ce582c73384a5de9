package domain

import "errors"

var (
	// Wallet errors
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletDisabled    = errors.New("wallet is disabled")
	ErrInsufficientFunds = errors.New("insufficient available funds")

	// ErrInconsistentHold indicates reserved bookkeeping that does not
	// cover a release or cancellation. It signals a prior bug and is
	// never retried or clamped.
	ErrInconsistentHold = errors.New("reserved funds inconsistent with hold")

	// Ledger errors
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrSameWallet       = errors.New("cannot transfer to same wallet")
	ErrCurrencyMismatch = errors.New("cannot transfer between different currencies")

	// ErrContention is returned after bounded retries when concurrent
	// transactions keep conflicting on the same wallet rows. Callers may
	// retry the whole operation.
	ErrContention = errors.New("transaction contention, retry")

	// Escrow errors
	ErrEscrowNotFound   = errors.New("escrow not found")
	ErrEscrowNotHeld    = errors.New("escrow is not in held status")
	ErrEscrowNotDispute = errors.New("escrow is not disputed")

	// Fee policy errors
	ErrFeePolicyUnresolved  = errors.New("fee policy could not be resolved")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrInvalidPlan          = errors.New("unknown subscription plan")
)
