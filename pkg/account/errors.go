package account

import "errors"

var (
	ErrNotFound         = errors.New("account record not found")
	ErrAlreadyExists    = errors.New("account record already exists")
	ErrUsageDayMismatch = errors.New("usage counter day does not match")
	ErrUsageExhausted   = errors.New("usage counter is at its cap")
)
