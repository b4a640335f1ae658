package auth

import "errors"

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrTokenInvalid = errors.New("sign-in token is invalid")
	ErrTokenExpired = errors.New("sign-in token has expired")
)
