package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"billx/internal/domain"
)

// ExtractResponse is the success envelope for the extraction endpoint.
type ExtractResponse struct {
	IsSuccess  bool                     `json:"is_success"`
	TokenUsage domain.TokenUsage        `json:"token_usage"`
	Data       *domain.ExtractionResult `json:"data"`
}

// ErrorResponse is the failure envelope. No partial data is ever attached.
type ErrorResponse struct {
	IsSuccess bool      `json:"is_success"`
	Error     *APIError `json:"error"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success envelope.
func RespondOK(c *gin.Context, usage domain.TokenUsage, data *domain.ExtractionResult) {
	c.JSON(http.StatusOK, ExtractResponse{
		IsSuccess:  true,
		TokenUsage: usage,
		Data:       data,
	})
}

// RespondError sends an error envelope with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorResponse{
		IsSuccess: false,
		Error:     &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string) {
	switch {
	case errors.Is(err, domain.ErrDocumentFetch):
		return http.StatusBadGateway, "DOCUMENT_FETCH_FAILED"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT"
	case errors.Is(err, domain.ErrOCRUnavailable):
		return http.StatusServiceUnavailable, "OCR_UNAVAILABLE"
	case errors.Is(err, domain.ErrNoProviderConfigured):
		return http.StatusServiceUnavailable, "NO_PROVIDER_CONFIGURED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// HandleError maps a pipeline error and sends the failure response. Known
// request-level failures carry their cause so callers can see why their
// document was rejected.
func HandleError(c *gin.Context, err error) {
	status, code := MapDomainError(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && code == "INTERNAL_ERROR" {
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] internal error: %v", requestID, err)
		msg = "error processing document"
	}
	RespondError(c, status, code, msg)
}
