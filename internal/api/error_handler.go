package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/service"
)

// APIError is an error with an HTTP status attached.
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware turns errors pushed onto the gin context into
// uniform error responses.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}

// HandleServiceError maps the service sentinels onto HTTP responses.
// Unrecognized errors read as 500 without leaking internals.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, service.ErrNotFound):
		Error(c, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, service.ErrConflict):
		Error(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, service.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "internal server error", "")
	}
}
