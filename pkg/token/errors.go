package token

import "errors"

var (
	ErrInvalidToken     = errors.New("token is malformed or not decodable")
	ErrSignatureInvalid = errors.New("token signature does not match")
)
