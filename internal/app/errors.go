package app

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrEmptyPrompt          = errors.New("prompt must not be empty")
	ErrConversationTooLarge = errors.New("conversation size limit exceeded")
)
