package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies a domain error for transport mapping and logging.
type ErrorCode string

const (
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"

	CodeQuizNotFound     ErrorCode = "QUIZ_NOT_FOUND"
	CodeDocumentRejected ErrorCode = "DOCUMENT_REJECTED"
	CodeAPIKeyMissing    ErrorCode = "API_KEY_MISSING"
	CodeLLMServiceError  ErrorCode = "LLM_SERVICE_ERROR"
	CodeLLMEmptyResponse ErrorCode = "LLM_EMPTY_RESPONSE"
	CodeLLMParseError    ErrorCode = "LLM_PARSE_ERROR"

	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"
)

// DomainError carries an error code, a human-readable message and an
// optional cause. It is the only error shape the HTTP boundary knows how
// to map to a status code.
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON keeps the cause out of serialized responses.
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a DomainError with an explicit code.
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause}
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewQuizNotFoundError(quizID int64) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %d", quizID), nil)
}

// NewDocumentRejectedError reports an unsupported upload media type.
// No I/O has been attempted when this is returned.
func NewDocumentRejectedError(mimeType string) *DomainError {
	return NewError(CodeDocumentRejected, fmt.Sprintf("Only PDF and document files are supported, got %q", mimeType), nil)
}

// NewAPIKeyMissingError reports an absent LLM credential. This is raised
// before any network call is attempted.
func NewAPIKeyMissingError() *DomainError {
	return NewError(CodeAPIKeyMissing, "API key not configured", nil)
}

func NewLLMServiceError(cause error) *DomainError {
	return NewError(CodeLLMServiceError, "Quiz generation service failed", cause)
}

func NewLLMEmptyResponseError() *DomainError {
	return NewError(CodeLLMEmptyResponse, "No response from API", nil)
}

func NewLLMParseError(cause error) *DomainError {
	return NewError(CodeLLMParseError, "Generated quiz did not match the expected shape", cause)
}

// NewValidationFailure wraps a shape violation found by parse-then-validate.
func NewValidationFailure(message string) *DomainError {
	return NewError(CodeValidation, message, nil)
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates per-field failures for one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s (and %d more)", e[0].Error(), len(e)-1)
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Code: CodeMissingField, Message: "field is required"}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Code: CodeInvalidFormat, Message: fmt.Sprintf("invalid format: %q", value)}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{Field: field, Code: CodeOutOfRange, Message: fmt.Sprintf("value %d out of range [%d, %d]", value, min, max)}
}
