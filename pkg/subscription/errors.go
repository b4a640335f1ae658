package subscription

import "errors"

var (
	ErrMissingUserID         = errors.New("user id is required")
	ErrMissingEmail          = errors.New("email is required")
	ErrMissingPriceID        = errors.New("price id is required")
	ErrMissingSubscriptionID = errors.New("subscription id is required")
	ErrNoSubscription        = errors.New("no subscription on file for user")
	ErrEventMissingUserID    = errors.New("webhook event metadata is missing the user id")
)
