package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// StateCacheKey is the cache key of the financial state snapshot.
	StateCacheKey = "financial_state"

	// StateCacheTTL bounds how long a cached state may outlive a missed invalidation.
	StateCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// Error kinds reported to the SettlementObserver.
	ErrorKindValidation  = "validation"
	ErrorKindArithmetic  = "arithmetic"
	ErrorKindConsistency = "consistency"
	ErrorKindInternal    = "internal"
)
