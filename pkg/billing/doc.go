// Package billing integrates the Paddle payment provider behind a narrow
// Provider interface: customer resolution, hosted checkout, subscription
// retrieve/update/cancel, invoice links, and signed webhook parsing.
//
// Webhook events are modeled as a closed union: ParseWebhook returns one of
// CheckoutCompleted, PaymentFailed, SubscriptionCanceled, or Unhandled, so
// consumers get a compile-checked type switch instead of untyped map access.
// Signature verification runs over the raw request body before any payload
// content is trusted.
package billing
