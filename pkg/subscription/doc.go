// Package subscription keeps per-user subscription records consistent with
// the payment provider's state across three entry points that can race each
// other: the checkout initiator, the provider webhook, and the synchronous
// switch/cancel endpoints.
//
// The webhook is the authoritative state-transition point. Every record write
// is keyed by the identity user id; events that only carry a billing-customer
// id are resolved to the user id through the store before writing. Writes are
// merges of exactly the fields each transition owns, so replaying an event
// converges on the same record state.
//
// No local state is written before the provider confirms the corresponding
// remote state: a failed live-subscription fetch after signature verification
// aborts with no partial write.
package subscription
