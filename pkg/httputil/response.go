package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/validator"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithMessage sends a success response carrying only a message
func RespondWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
	})
}

// RespondWithError sends an error response. Errors that are not an
// AppError are logged and reported as a generic internal error.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternal(err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Details,
	})
}

// RespondWithBadRequest reports a malformed request.
func RespondWithBadRequest(c *gin.Context, message string) {
	RespondWithError(c, errors.NewValidation(message))
}

// RespondWithBindError reports a request body or query that failed to bind,
// one line per invalid field.
func RespondWithBindError(c *gin.Context, err error) {
	RespondWithError(c, errors.NewValidation("invalid request", validator.Messages(err)...))
}

// ParamUUID parses a path parameter. On failure it responds and returns false.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondWithBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID parses an optional query parameter. A missing value gives
// uuid.Nil; an invalid one responds and returns false.
func QueryUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondWithBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
