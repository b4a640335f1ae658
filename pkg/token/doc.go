// Package token provides compact, HMAC-signed tokens for embedding JSON payloads.
//
// Tokens carry the full HMAC-SHA256 signature because they gate passwordless
// sign-in: a forged token is a forged session, so the compactness trade-off of
// a truncated MAC is not acceptable here.
//
// Token format: base64url(payload).base64url(signature)
//
// # Usage
//
//	type Payload struct {
//	    Email string `json:"email"`
//	    Exp   int64  `json:"exp"`
//	}
//
//	tok, err := token.Generate(Payload{"a@b.c", time.Now().Add(time.Hour).Unix()}, secret)
//	p, err := token.Parse[Payload](tok, secret)
//
// Parse returns ErrInvalidToken for malformed input and ErrSignatureInvalid
// for signature mismatches.
package token
