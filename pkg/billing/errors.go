package billing

import "errors"

var (
	ErrMissingAPIKey             = errors.New("billing API key is required")
	ErrMissingWebhookSecret      = errors.New("billing webhook secret is required")
	ErrInvalidEnvironment        = errors.New("invalid billing environment")
	ErrMissingPriceID            = errors.New("price ID is required")
	ErrMissingSubscriptionID     = errors.New("subscription ID is required")
	ErrCustomerNotFound          = errors.New("billing customer not found")
	ErrNoCheckoutURL             = errors.New("no checkout URL returned from provider")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrMalformedEvent            = errors.New("malformed webhook event payload")
	ErrUnknownPlan               = errors.New("unknown subscription plan")
)
