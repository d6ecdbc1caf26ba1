package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/domain"
)

// statusFor maps application errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRunActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrHistoryDisabled):
		return http.StatusServiceUnavailable
	}

	switch domain.KindOf(err) {
	case domain.KindInvalidLocator:
		return http.StatusBadRequest
	case domain.KindEngineUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindResolutionFailed, domain.KindNoFormats, domain.KindNoSuitableFormat:
		return http.StatusUnprocessableEntity
	case domain.KindUserStopped:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the error with its kind when it has one
func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if kind := domain.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	c.JSON(statusFor(err), body)
}
