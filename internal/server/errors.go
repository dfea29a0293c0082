package server

import (
	"errors"
	"net/http"

	"github.com/PaulBabatuyi/FileDrop/internal/codec"
	"github.com/PaulBabatuyi/FileDrop/internal/database"
	"github.com/PaulBabatuyi/FileDrop/internal/preview"
	"github.com/PaulBabatuyi/FileDrop/internal/service"
	"github.com/gin-gonic/gin"
)

// statusFor maps a core error to the HTTP status the API answers with.
func statusFor(err error) int {
	var reqErr *database.RequestError
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrPinned):
		return http.StatusConflict
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrContentTypeMismatch),
		errors.Is(err, codec.ErrMalformedEncoding),
		errors.Is(err, preview.ErrNotPreviewable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, database.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &reqErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
