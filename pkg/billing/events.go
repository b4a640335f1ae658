package billing

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the closed union of webhook events the application reacts to.
// Exactly one concrete type is returned per provider callback; everything the
// application does not handle decodes to Unhandled.
type Event interface {
	// EventName returns the provider's original event type string.
	EventName() string
}

// CheckoutCompleted fires when a checkout transaction has been paid and the
// provider has created the subscription. Metadata carries the identity user id
// and plan label attached at checkout time.
type CheckoutCompleted struct {
	SubscriptionID string
	CustomerID     string
	UserID         string
	Plan           string
	InvoiceID      string
}

func (e CheckoutCompleted) EventName() string { return eventTransactionCompleted }

// PaymentFailed fires when a renewal charge fails. The provider keys it by
// billing customer, not by identity user.
type PaymentFailed struct {
	CustomerID     string
	SubscriptionID string
}

func (e PaymentFailed) EventName() string { return eventTransactionPaymentFailed }

// SubscriptionCanceled fires when a subscription is canceled on the provider
// side, for example through a provider-hosted surface.
type SubscriptionCanceled struct {
	SubscriptionID string
	CustomerID     string
	UserID         string
	PeriodEnd      *time.Time
}

func (e SubscriptionCanceled) EventName() string { return eventSubscriptionCanceled }

// Unhandled is any verified event the application ignores. It still
// acknowledges successfully so the provider stops retrying.
type Unhandled struct {
	Name string
}

func (e Unhandled) EventName() string { return e.Name }

const (
	eventTransactionCompleted     = "transaction.completed"
	eventTransactionPaymentFailed = "transaction.payment_failed"
	eventSubscriptionCanceled     = "subscription.canceled"
)

// Metadata keys attached to checkout transactions and echoed back in events.
const (
	metadataUserID = "user_id"
	metadataPlan   = "plan"
)

type eventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type customData struct {
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
}

type transactionData struct {
	ID             string     `json:"id"`
	SubscriptionID string     `json:"subscription_id"`
	InvoiceID      string     `json:"invoice_id"`
	CustomerID     string     `json:"customer_id"`
	CustomData     customData `json:"custom_data"`
}

type subscriptionData struct {
	ID                   string     `json:"id"`
	CustomerID           string     `json:"customer_id"`
	CustomData           customData `json:"custom_data"`
	CurrentBillingPeriod *struct {
		EndsAt time.Time `json:"ends_at"`
	} `json:"current_billing_period"`
}

// decodeEvent maps a verified raw payload onto the event union. It never
// inspects unverified input; callers verify the signature first.
func decodeEvent(payload []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch env.EventType {
	case eventTransactionCompleted:
		var data transactionData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		invoiceID := data.InvoiceID
		if invoiceID == "" {
			invoiceID = data.ID
		}
		return CheckoutCompleted{
			SubscriptionID: data.SubscriptionID,
			CustomerID:     data.CustomerID,
			UserID:         data.CustomData.UserID,
			Plan:           data.CustomData.Plan,
			InvoiceID:      invoiceID,
		}, nil

	case eventTransactionPaymentFailed:
		var data transactionData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return PaymentFailed{
			CustomerID:     data.CustomerID,
			SubscriptionID: data.SubscriptionID,
		}, nil

	case eventSubscriptionCanceled:
		var data subscriptionData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		ev := SubscriptionCanceled{
			SubscriptionID: data.ID,
			CustomerID:     data.CustomerID,
			UserID:         data.CustomData.UserID,
		}
		if data.CurrentBillingPeriod != nil {
			end := data.CurrentBillingPeriod.EndsAt
			ev.PeriodEnd = &end
		}
		return ev, nil

	default:
		return Unhandled{Name: env.EventType}, nil
	}
}
