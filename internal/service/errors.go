package service

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRetryExhausted    = errors.New("ticket store contention: retries exhausted")
	ErrInvalidTransition = errors.New("invalid ticket status transition")
	ErrTicketNotFound    = errors.New("ticket not found")
)

// ValidationError - 400 응답용 코드/메시지 (errors.Is(err, ErrInvalidInput) == true)
type ValidationError struct {
	Code    string
	Message string
}

func newValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
