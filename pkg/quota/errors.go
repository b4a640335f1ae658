package quota

import "errors"

var (
	ErrMissingUserID = errors.New("user id is required")
	ErrExhausted     = errors.New("daily request limit reached")
)
