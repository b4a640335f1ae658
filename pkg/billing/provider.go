package billing

import (
	"context"
	"time"
)

// Provider defines the payment provider operations the application depends on.
// The hosted-checkout model keeps all card handling on the provider's side;
// this interface only brokers identifiers and state.
type Provider interface {
	// EnsureCustomer resolves a billing customer id. A known id is verified
	// with the provider; an id the provider does not recognize falls back to
	// creating a fresh customer for the email. Any other provider failure is
	// returned as-is.
	EnsureCustomer(ctx context.Context, customerID, email string) (string, error)

	// CreateCheckout opens a hosted checkout transaction in subscription mode
	// for exactly one line item, carrying the user id and plan as metadata for
	// the webhook to read back.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)

	// GetSubscription fetches the live subscription state, including the
	// current billing period.
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// ChangePrice swaps the subscription's single line item to a new price
	// with proration enabled, returning the updated state.
	ChangePrice(ctx context.Context, subscriptionID, priceID string) (*Subscription, error)

	// Cancel schedules cancellation at the end of the current billing period
	// and returns the resulting state, whose PeriodEnd is the access cutoff.
	Cancel(ctx context.Context, subscriptionID string) (*Subscription, error)

	// InvoiceURL returns a link to the invoice PDF for a billed transaction.
	InvoiceURL(ctx context.Context, transactionID string) (string, error)

	// ParseWebhook verifies the event signature against the raw payload bytes
	// and decodes the event. Verification failure returns
	// ErrWebhookVerificationFailed and nothing else is inspected.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (Event, error)
}

// CheckoutRequest contains data needed to open a checkout transaction.
type CheckoutRequest struct {
	PriceID    string // provider price id for the chosen plan
	CustomerID string // billing customer id, already resolved
	Email      string // billing email, informational
	UserID     string // identity user id, round-tripped through metadata
	Plan       string // plan label, round-tripped through metadata
	SuccessURL string // where the hosted checkout redirects on completion
}

// Checkout represents an opened hosted checkout transaction.
type Checkout struct {
	URL           string
	TransactionID string
}

// Subscription is the provider's live subscription state, reduced to the
// fields the application persists.
type Subscription struct {
	ID          string
	Status      string
	PriceID     string
	PeriodStart time.Time
	PeriodEnd   time.Time
}
