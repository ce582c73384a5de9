package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds every database transaction so lock
	// waits cannot block a request indefinitely.
	DefaultTransactionTimeout = 10 * time.Second

	// FeePolicyCacheTTL is how long resolved fee rates are cached per
	// organization.
	FeePolicyCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// FeeRoundingPlaces is the decimal precision of computed fees.
	FeeRoundingPlaces = 2

	// BasisPointDivisor converts basis points to a rate.
	BasisPointDivisor = 10000
)
