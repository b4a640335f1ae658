package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cvboost/cvboost/pkg/account"
	"github.com/cvboost/cvboost/pkg/billing"
	"github.com/cvboost/cvboost/pkg/logger"
)

// Service defines the public interface for subscription management.
type Service interface {
	// ResolveCustomer returns a billing customer id for the email, verifying
	// a known id with the provider and creating a customer when needed.
	ResolveCustomer(ctx context.Context, email, customerID string) (string, error)

	// Checkout opens a hosted checkout for the given price and returns the
	// redirect URL. The user id and plan label are attached as checkout
	// metadata for the webhook to read back.
	Checkout(ctx context.Context, params CheckoutParams) (string, error)

	// HandleWebhook verifies and applies a provider event. It is the only
	// authoritative writer of subscription state transitions.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// Switch moves the user's existing subscription to a new price with
	// proration and updates the record from the provider's response.
	Switch(ctx context.Context, userID, priceID string) error

	// Cancel ends the subscription at period end and records the cutoff date.
	Cancel(ctx context.Context, userID, subscriptionID string) error

	// InvoiceURL returns the invoice PDF link for a billed transaction.
	InvoiceURL(ctx context.Context, invoiceID string) (string, error)
}

// CheckoutParams carries the checkout initiation request.
type CheckoutParams struct {
	PriceID    string
	Email      string
	CustomerID string // optional known billing customer id
	UserID     string
	Plan       account.Plan
	SuccessURL string
}

type service struct {
	provider billing.Provider
	store    account.Store
	prices   billing.PriceMap
	log      *slog.Logger
	now      func() time.Time
}

// Option configures optional service settings.
type Option func(*service)

// WithLogger sets the service logger. Without it, logging is discarded.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a subscription service. Panics on nil provider or store
// to fail fast during initialization.
func NewService(provider billing.Provider, store account.Store, prices billing.PriceMap, opts ...Option) Service {
	if provider == nil {
		panic("subscription: billing provider is required")
	}
	if store == nil {
		panic("subscription: account store is required")
	}

	s := &service{
		provider: provider,
		store:    store,
		prices:   prices,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ResolveCustomer(ctx context.Context, email, customerID string) (string, error) {
	if email == "" {
		return "", ErrMissingEmail
	}
	return s.provider.EnsureCustomer(ctx, customerID, email)
}

func (s *service) Checkout(ctx context.Context, params CheckoutParams) (string, error) {
	if params.PriceID == "" {
		return "", ErrMissingPriceID
	}
	if params.UserID == "" {
		return "", ErrMissingUserID
	}

	customerID, err := s.provider.EnsureCustomer(ctx, params.CustomerID, params.Email)
	if err != nil {
		return "", err
	}

	// Remember the customer id so payment-failure events, which only carry
	// the billing customer, can be resolved back to this user. The record may
	// not exist yet when checkout races first sign-in; that is tolerated.
	if err := s.store.Merge(ctx, params.UserID, account.Update{
		BillingCustomerID: &customerID,
	}); err != nil && !errors.Is(err, account.ErrNotFound) {
		return "", fmt.Errorf("failed to record billing customer: %w", err)
	}

	checkout, err := s.provider.CreateCheckout(ctx, billing.CheckoutRequest{
		PriceID:    params.PriceID,
		CustomerID: customerID,
		Email:      params.Email,
		UserID:     params.UserID,
		Plan:       string(params.Plan),
		SuccessURL: params.SuccessURL,
	})
	if err != nil {
		return "", err
	}
	return checkout.URL, nil
}

// HandleWebhook verifies the event signature, then applies exactly one state
// transition. Each branch merges only the fields it owns, keyed by the
// identity user id, so provider retries and replays converge.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	switch ev := event.(type) {
	case billing.CheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, ev)
	case billing.PaymentFailed:
		return s.applyPaymentFailed(ctx, ev)
	case billing.SubscriptionCanceled:
		return s.applySubscriptionCanceled(ctx, ev)
	case billing.Unhandled:
		s.log.DebugContext(ctx, "ignoring webhook event", logger.EventType(ev.Name))
		return nil
	default:
		s.log.WarnContext(ctx, "unknown webhook event type", logger.EventType(event.EventName()))
		return nil
	}
}

func (s *service) applyCheckoutCompleted(ctx context.Context, ev billing.CheckoutCompleted) error {
	if ev.UserID == "" {
		return ErrEventMissingUserID
	}
	if ev.SubscriptionID == "" {
		return fmt.Errorf("%w: checkout event without subscription", ErrMissingSubscriptionID)
	}

	// The billing-period dates must come from the live subscription, not the
	// event: activation without an authoritative end date is a partial write.
	sub, err := s.provider.GetSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return err
	}

	plan := account.Plan(ev.Plan)
	if !plan.Valid() {
		name, err := s.prices.PlanFor(sub.PriceID)
		if err != nil {
			return fmt.Errorf("cannot determine plan for subscription %s: %w", ev.SubscriptionID, err)
		}
		plan = account.Plan(name)
	}

	status := account.StatusActive
	upd := account.Update{
		SubscriptionID:    &ev.SubscriptionID,
		Plan:              &plan,
		Status:            &status,
		SubscriptionStart: &sub.PeriodStart,
		SubscriptionEnd:   &sub.PeriodEnd,
	}
	if ev.InvoiceID != "" {
		upd.InvoiceID = &ev.InvoiceID
	}
	if ev.CustomerID != "" {
		upd.BillingCustomerID = &ev.CustomerID
	}

	if err := s.store.Merge(ctx, ev.UserID, upd); err != nil {
		return fmt.Errorf("failed to activate subscription for user %s: %w", ev.UserID, err)
	}

	s.log.InfoContext(ctx, "subscription activated",
		logger.UserID(ev.UserID),
		logger.SubscriptionID(ev.SubscriptionID),
		slog.String("plan", string(plan)),
	)
	return nil
}

func (s *service) applyPaymentFailed(ctx context.Context, ev billing.PaymentFailed) error {
	rec, err := s.store.GetByCustomerID(ctx, ev.CustomerID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// Nothing to mark: the customer was never linked to a user
			// record. Acknowledge so the provider stops retrying.
			s.log.WarnContext(ctx, "payment failure for unknown billing customer",
				logger.CustomerID(ev.CustomerID),
				logger.SubscriptionID(ev.SubscriptionID),
			)
			return nil
		}
		return err
	}

	status := account.StatusPaymentFailed
	if err := s.store.Merge(ctx, rec.UserID, account.Update{Status: &status}); err != nil {
		return fmt.Errorf("failed to mark payment failure for user %s: %w", rec.UserID, err)
	}

	s.log.InfoContext(ctx, "payment failure recorded", logger.UserID(rec.UserID))
	return nil
}

func (s *service) applySubscriptionCanceled(ctx context.Context, ev billing.SubscriptionCanceled) error {
	userID := ev.UserID
	if userID == "" {
		rec, err := s.store.GetByCustomerID(ctx, ev.CustomerID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				s.log.WarnContext(ctx, "cancellation for unknown billing customer",
					logger.CustomerID(ev.CustomerID),
				)
				return nil
			}
			return err
		}
		userID = rec.UserID
	}

	status := account.StatusCanceled
	upd := account.Update{Status: &status}
	if ev.PeriodEnd != nil {
		upd.SubscriptionEnd = ev.PeriodEnd
	}

	if err := s.store.Merge(ctx, userID, upd); err != nil {
		return fmt.Errorf("failed to record cancellation for user %s: %w", userID, err)
	}

	s.log.InfoContext(ctx, "subscription canceled via provider", logger.UserID(userID))
	return nil
}

func (s *service) Switch(ctx context.Context, userID, priceID string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if priceID == "" {
		return ErrMissingPriceID
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if rec.SubscriptionID == "" {
		return ErrNoSubscription
	}

	sub, err := s.provider.ChangePrice(ctx, rec.SubscriptionID, priceID)
	if err != nil {
		return err
	}

	name, err := s.prices.PlanFor(sub.PriceID)
	if err != nil {
		// Provider confirmed a price this deployment does not know. Persist
		// nothing rather than guessing a plan label.
		return fmt.Errorf("switched subscription %s to unknown price %s: %w", sub.ID, sub.PriceID, err)
	}

	plan := account.Plan(name)
	status := account.StatusActive
	if err := s.store.Merge(ctx, userID, account.Update{
		Plan:            &plan,
		Status:          &status,
		SubscriptionEnd: &sub.PeriodEnd,
	}); err != nil {
		return fmt.Errorf("failed to record plan switch for user %s: %w", userID, err)
	}

	s.log.InfoContext(ctx, "subscription switched",
		logger.UserID(userID),
		slog.String("plan", name),
	)
	return nil
}

func (s *service) Cancel(ctx context.Context, userID, subscriptionID string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if subscriptionID == "" {
		return ErrMissingSubscriptionID
	}

	sub, err := s.provider.Cancel(ctx, subscriptionID)
	if err != nil {
		return err
	}

	status := account.StatusCanceled
	if err := s.store.Merge(ctx, userID, account.Update{
		Status:          &status,
		SubscriptionEnd: &sub.PeriodEnd,
	}); err != nil {
		return fmt.Errorf("failed to record cancellation for user %s: %w", userID, err)
	}

	s.log.InfoContext(ctx, "subscription canceled",
		logger.UserID(userID),
		logger.SubscriptionID(subscriptionID),
	)
	return nil
}

func (s *service) InvoiceURL(ctx context.Context, invoiceID string) (string, error) {
	if invoiceID == "" {
		return "", errors.New("invoice id is required")
	}
	return s.provider.InvoiceURL(ctx, invoiceID)
}
