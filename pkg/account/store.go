package account

import "context"

// Store defines persistence for account records.
type Store interface {
	// Get retrieves a record by the identity user id.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, userID string) (*Record, error)

	// GetByCustomerID retrieves a record by the billing provider's customer id.
	// Returns ErrNotFound if no record carries that id.
	GetByCustomerID(ctx context.Context, customerID string) (*Record, error)

	// GetByEmail retrieves a record by the sign-in email address.
	// Returns ErrNotFound if no record carries that address.
	GetByEmail(ctx context.Context, email string) (*Record, error)

	// Create inserts a new record. Returns ErrAlreadyExists if the user id is taken.
	Create(ctx context.Context, rec *Record) error

	// Merge applies a partial update to an existing record as a single write.
	// An empty update is a no-op. Returns ErrNotFound if the record does not
	// exist.
	Merge(ctx context.Context, userID string, upd Update) error

	// IncrementUsage atomically increments the usage counter, but only while
	// the stored counter still belongs to the given day and is below the cap,
	// so the stored count can never exceed the cap. Returns the new count,
	// ErrUsageDayMismatch when the counter has rolled to another day, or
	// ErrUsageExhausted when the counter is already at the cap.
	IncrementUsage(ctx context.Context, userID, day string, limit int) (int, error)

	// ResetUsage rolls the usage counter to zero for the given day, but only
	// while the stored counter belongs to another day. Resetting a counter
	// already on the given day is a no-op, so a caller holding a stale read
	// can never wipe increments made after the day rolled.
	ResetUsage(ctx context.Context, userID, day string) error
}
