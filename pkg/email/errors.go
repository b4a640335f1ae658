package email

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid email configuration")
	ErrInvalidMessage = errors.New("invalid email message")
	ErrSendFailed     = errors.New("failed to send email")
)
