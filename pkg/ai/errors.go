package ai

import "errors"

var (
	ErrMissingAPIKey = errors.New("openai api key is required")
	ErrMissingResume = errors.New("resume text is required")
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrRequestFailed = errors.New("completion request failed")
)
