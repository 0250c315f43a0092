package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/logger"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondError maps any error from the core onto its HTTP status. Errors
// that never went through the errors package become 500s.
func RespondError(c *gin.Context, err error) {
	var apiErr *errors.APIError
	if !asAPIError(err, &apiErr) {
		apiErr = errors.InternalError("internal server error")
		apiErr.Err = err
	}
	RespondWithAPIError(c, apiErr)
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	status := apiErr.Code.StatusCode()
	requestID := c.GetString("request_id")

	if status >= http.StatusInternalServerError {
		logger.Log.Error("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.Int("status", status),
			logger.WithRequestID(requestID),
			zap.NamedError("cause", apiErr.Err),
		)
	} else {
		logger.Log.Debug("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("field", apiErr.Field),
			logger.WithRequestID(requestID),
		)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "user not authenticated"
	}
	RespondWithAPIError(c, errors.Unauthorized(message))
}

// RespondValidationError sends a 422 Unprocessable Entity response
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}
