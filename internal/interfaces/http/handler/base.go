// Package handler implements the HTTP handlers of the dashboard.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/infrastructure/logger"
	"github.com/vaxdash/backend/internal/infrastructure/scheduler"
	"github.com/vaxdash/backend/internal/interfaces/http/dto"
	"github.com/vaxdash/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// errorMapping is the HTTP rendering of a class of errors
type errorMapping struct {
	code    string
	message string
}

// errorMappings is checked in order with errors.Is
var errorMappings = []struct {
	target  error
	mapping errorMapping
}{
	{vaccination.ErrUnknownCountry, errorMapping{dto.ErrCodeNotFound, "Unknown country"}},
	{dashboard.ErrNotReady, errorMapping{dto.ErrCodeNotReady, "Vaccination data is still loading, try again shortly"}},
	{vaccination.ErrInsufficientData, errorMapping{dto.ErrCodeInsufficientData, "Not enough data to draw a chart"}},
	{literature.ErrEmptyTerm, errorMapping{dto.ErrCodeValidation, "Search term is required"}},
	{literature.ErrInvalidMaxCount, errorMapping{dto.ErrCodeValidation, "max_count must be between 1 and 100"}},
	{scheduler.ErrRefreshInProgress, errorMapping{dto.ErrCodeConflict, "A refresh is already in progress"}},
	{scheduler.ErrSchedulerNotRunning, errorMapping{dto.ErrCodeNotReady, "Refresh scheduler is not running"}},
	{vaccination.ErrCountryNotInSource, errorMapping{dto.ErrCodeUpstream, "Vaccination source is missing a country"}},
	{vaccination.ErrSourceUnavailable, errorMapping{dto.ErrCodeUpstream, "Vaccination source is unavailable"}},
	{vaccination.ErrSourceRequestFailed, errorMapping{dto.ErrCodeUpstream, "Vaccination source request failed"}},
	{vaccination.ErrSourceInvalid, errorMapping{dto.ErrCodeUpstream, "Vaccination source returned invalid data"}},
	{literature.ErrSearchUnavailable, errorMapping{dto.ErrCodeUpstream, "PubMed is unavailable"}},
	{literature.ErrSearchRequestFailed, errorMapping{dto.ErrCodeUpstream, "PubMed request failed"}},
	{literature.ErrSearchInvalid, errorMapping{dto.ErrCodeUpstream, "PubMed returned an invalid response"}},
	{context.DeadlineExceeded, errorMapping{dto.ErrCodeTimeout, "The request timed out"}},
}

// mapError returns the error code, status and client message for err
func mapError(err error) (code string, status int, message string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.mapping.code, dto.GetHTTPStatus(m.mapping.code), m.mapping.message
		}
	}
	return dto.ErrCodeInternal, http.StatusInternalServerError, "An unexpected error occurred"
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, meta *dto.Meta) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

// Accepted sends a 202 response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ValidationError sends the binding error of a request
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError converts a domain or infrastructure error to a JSON response.
// Server-side failures are logged and attached to the gin context.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, status, message := mapError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.FromGin(c).Error("Request failed", zap.String("code", code), zap.Error(err))
	}
	h.Error(c, status, code, message)
}
