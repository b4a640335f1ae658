// Package account holds the per-user subscription record and its persistence.
//
// Each user has exactly one record in the users collection, keyed by the
// identity provider's user id. All writes are merges: an update touches only
// the fields it names, expressed as a single $set so it is atomic at the
// document level. The daily AI usage counter is incremented with $inc guarded
// by the current day key, never with read-then-write.
package account
