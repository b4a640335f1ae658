// Package auth implements passwordless sign-in with emailed magic links.
//
// Requesting a link never reveals whether an account exists: the email is
// always sent. The account record is created on the first successful
// verification, not at request time, so unverified addresses never create
// records. Tokens are signed with HMAC-SHA256 and carry their own expiry;
// the short TTL stands in for replay tracking.
package auth
