package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the record never existed (or is already swept).
	ErrNotFound = errors.New("record not found")

	// ErrQuizExpired means the quiz existed but is past its 7-day
	// retention window. Handlers must map it to 410, never 404.
	ErrQuizExpired = errors.New("quiz expired")

	// ErrGenerationExhausted means identifier generation kept colliding
	// with existing records and gave up.
	ErrGenerationExhausted = errors.New("identifier generation exhausted retries")
)

// Validation error codes a client can branch on.
const (
	CodeInvalidBody     = "invalid_body"
	CodeEmptyName       = "empty_name"
	CodePlaceholderName = "placeholder_name"
	CodeBadOptions      = "bad_options"
	CodeBadAnswerSet    = "bad_answer_set"
	CodeBadTakerName    = "bad_taker_name"
)

// ValidationError is a request-shape violation with enough detail for a
// field-level 400 body.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}
