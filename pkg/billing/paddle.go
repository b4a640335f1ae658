package billing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// Config holds configuration for the Paddle billing provider.
type Config struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle Billing.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(cfg Config) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

// EnsureCustomer verifies a known customer id with Paddle, falling back to
// creating a fresh customer when Paddle reports the id does not exist. Any
// other retrieval failure propagates unchanged.
func (p *PaddleProvider) EnsureCustomer(ctx context.Context, customerID, email string) (string, error) {
	if customerID != "" {
		customer, err := p.client.CustomersClient.GetCustomer(ctx, &paddle.GetCustomerRequest{
			CustomerID: customerID,
		})
		if err == nil {
			return customer.ID, nil
		}
		if !isNotFound(err) {
			return "", fmt.Errorf("failed to retrieve paddle customer: %w", err)
		}
	}

	customer, err := p.client.CustomersClient.CreateCustomer(ctx, &paddle.CreateCustomerRequest{
		Email: email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create paddle customer: %w", err)
	}
	return customer.ID, nil
}

// CreateCheckout opens a transaction with a single catalog line item. The
// user id and plan label ride along as custom data so the webhook can key the
// user record without guessing from the customer id.
func (p *PaddleProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			metadataUserID: req.UserID,
			metadataPlan:   req.Plan,
		},
	}
	if req.CustomerID != "" {
		transactionReq.CustomerID = paddle.PtrTo(req.CustomerID)
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil || *transaction.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &Checkout{
		URL:           *transaction.Checkout.URL,
		TransactionID: transaction.ID,
	}, nil
}

// GetSubscription fetches the live subscription from Paddle.
func (p *PaddleProvider) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, ErrMissingSubscriptionID
	}

	sub, err := p.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve paddle subscription: %w", err)
	}
	return mapSubscription(sub.ID, string(sub.Status), sub.Items, sub.CurrentBillingPeriod)
}

// ChangePrice replaces the subscription's single line item with the new price,
// prorating immediately so mid-cycle switches are billed fairly.
func (p *PaddleProvider) ChangePrice(ctx context.Context, subscriptionID, priceID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, ErrMissingSubscriptionID
	}
	if priceID == "" {
		return nil, ErrMissingPriceID
	}

	item := paddle.NewUpdateSubscriptionItemsSubscriptionUpdateItemFromCatalog(&paddle.SubscriptionUpdateItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	sub, err := p.client.SubscriptionsClient.UpdateSubscription(ctx, &paddle.UpdateSubscriptionRequest{
		SubscriptionID:       subscriptionID,
		Items:                paddle.NewPatchField([]paddle.UpdateSubscriptionItems{*item}),
		ProrationBillingMode: paddle.NewPatchField(paddle.ProrationBillingModeProratedImmediately),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update paddle subscription: %w", err)
	}
	return mapSubscription(sub.ID, string(sub.Status), sub.Items, sub.CurrentBillingPeriod)
}

// Cancel schedules cancellation for the end of the current billing period.
// The returned PeriodEnd is the access cutoff to persist.
func (p *PaddleProvider) Cancel(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, ErrMissingSubscriptionID
	}

	sub, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionID,
		EffectiveFrom:  paddle.PtrTo(paddle.EffectiveFromNextBillingPeriod),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel paddle subscription: %w", err)
	}
	return mapSubscription(sub.ID, string(sub.Status), sub.Items, sub.CurrentBillingPeriod)
}

// InvoiceURL returns the invoice PDF link for a billed transaction.
func (p *PaddleProvider) InvoiceURL(ctx context.Context, transactionID string) (string, error) {
	invoice, err := p.client.TransactionsClient.GetTransactionInvoice(ctx, &paddle.GetTransactionInvoiceRequest{
		TransactionID: transactionID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve paddle invoice: %w", err)
	}
	return invoice.URL, nil
}

// ParseWebhook verifies the Paddle signature over the raw payload bytes, then
// decodes the event union. The raw bytes must be exactly what arrived on the
// wire: the signature covers them byte for byte.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	return decodeEvent(payload)
}

func mapSubscription(id, status string, items []paddle.SubscriptionItem, period *paddle.TimePeriod) (*Subscription, error) {
	sub := &Subscription{
		ID:     id,
		Status: status,
	}
	if len(items) > 0 {
		sub.PriceID = items[0].Price.ID
	}
	if period != nil {
		start, err := time.Parse(time.RFC3339, period.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("invalid billing period start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, period.EndsAt)
		if err != nil {
			return nil, fmt.Errorf("invalid billing period end: %w", err)
		}
		sub.PeriodStart = start
		sub.PeriodEnd = end
	}
	return sub, nil
}

// isNotFound reports whether a Paddle API error is the entity-not-found case,
// the only retrieval failure EnsureCustomer recovers from.
func isNotFound(err error) bool {
	return errors.Is(err, paddle.ErrNotFound)
}
