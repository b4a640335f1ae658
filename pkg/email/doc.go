// Package email sends transactional mail through a provider-agnostic Sender
// interface. PostmarkSender delivers through Postmark in production; DevSender
// writes messages to disk for local development. Message bodies for the
// sign-in flow are composed here so handlers never build HTML.
package email
