package middleware

import (
	"errors"
	"net/http"
	"tichmi/internal/domain"
	"tichmi/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the standard error response structure.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ValidationErrorResponse carries per-field validation failures.
type ValidationErrorResponse struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Status  int                      `json:"status"`
	Errors  []domain.ValidationError `json:"errors"`
}

// ErrorHandler is the centralized error handler wired into the Fiber app.
// Handlers and services return errors; this is the single place they become
// HTTP responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	log := logger.Get()

	var validationErrs domain.ValidationErrors
	if errors.As(err, &validationErrs) {
		log.Warn("Request validation failed",
			zap.String("path", c.Path()),
			zap.Int("error_count", len(validationErrs)),
		)
		return c.Status(http.StatusBadRequest).JSON(ValidationErrorResponse{
			Code:    string(domain.CodeValidation),
			Message: "Request validation failed",
			Status:  http.StatusBadRequest,
			Errors:  validationErrs,
		})
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		statusCode := mapDomainErrorToHTTPStatus(domainErr)
		log.Error("Domain error occurred",
			zap.String("code", string(domainErr.Code)),
			zap.String("message", domainErr.Message),
			zap.Int("status", statusCode),
			zap.Error(domainErr.Cause),
		)
		return c.Status(statusCode).JSON(ErrorResponse{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Status:  statusCode,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		log.Warn("HTTP error occurred",
			zap.Int("code", fiberErr.Code),
			zap.String("message", fiberErr.Message),
		)
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Code:    "HTTP_ERROR",
			Message: fiberErr.Message,
			Status:  fiberErr.Code,
		})
	}

	log.Error("Unknown error occurred",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
		Code:    string(domain.CodeInternal),
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	})
}

func mapDomainErrorToHTTPStatus(err *domain.DomainError) int {
	switch err.Code {
	case domain.CodeNotFound, domain.CodeQuizNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidInput, domain.CodeValidation, domain.CodeDocumentRejected,
		domain.CodeMissingField, domain.CodeInvalidFormat, domain.CodeOutOfRange:
		return http.StatusBadRequest
	case domain.CodeAPIKeyMissing, domain.CodeLLMServiceError,
		domain.CodeLLMEmptyResponse, domain.CodeLLMParseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
