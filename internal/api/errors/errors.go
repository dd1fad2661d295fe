// Package errors provides error handling and HTTP status code mapping.
package errors

import (
	"errors"
	"net/http"

	"github.com/RetendoNetwork/SSSL/internal/api/dto"
	"github.com/RetendoNetwork/SSSL/internal/forge"
)

// Error codes for API responses.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeMalformedCertificate = "MALFORMED_CERTIFICATE"
	CodeInvalidPrivateKey    = "INVALID_PRIVATE_KEY"
	CodeInvalidCSR           = "INVALID_CSR"
	CodeKeyGeneration        = "KEY_GENERATION_FAILED"
	CodeSigning              = "SIGNING_FAILED"
	CodeAudit                = "AUDIT_FAILED"
	CodeInternal             = "INTERNAL_ERROR"
)

// MapError maps an internal error to an HTTP status code and APIError.
func MapError(err error) (int, *dto.APIError) {
	if err == nil {
		return http.StatusOK, nil
	}

	var details map[string]string
	var forgeErr *forge.Error
	if errors.As(err, &forgeErr) {
		details = map[string]string{"stage": forgeErr.Stage}
	}

	mapped := func(status int, code string) (int, *dto.APIError) {
		return status, &dto.APIError{Code: code, Message: err.Error(), Details: details}
	}

	switch {
	case errors.Is(err, forge.ErrInvalidConfig):
		return mapped(http.StatusBadRequest, CodeValidation)
	case errors.Is(err, forge.ErrMalformedCertificate):
		return mapped(http.StatusBadRequest, CodeMalformedCertificate)
	case errors.Is(err, forge.ErrInvalidPrivateKey):
		return mapped(http.StatusBadRequest, CodeInvalidPrivateKey)
	case errors.Is(err, forge.ErrInvalidCSR):
		return mapped(http.StatusBadRequest, CodeInvalidCSR)
	case errors.Is(err, forge.ErrKeyGeneration):
		return mapped(http.StatusInternalServerError, CodeKeyGeneration)
	case errors.Is(err, forge.ErrSigning):
		return mapped(http.StatusInternalServerError, CodeSigning)
	case errors.Is(err, forge.ErrAudit):
		return mapped(http.StatusInternalServerError, CodeAudit)
	}

	// Default internal error
	return http.StatusInternalServerError, &dto.APIError{
		Code:    CodeInternal,
		Message: "An internal error occurred",
		Details: details,
	}
}

// NewBadRequest creates a bad request error.
func NewBadRequest(message string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeInvalidRequest,
		Message: message,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string, details map[string]string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
	}
}
