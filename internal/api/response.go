// Package api provides HTTP handlers for the REST API endpoints.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/fairshare/internal/catalog"
	"github.com/stwalsh4118/fairshare/internal/playback"
	"github.com/stwalsh4118/fairshare/internal/studio"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MessageResponse represents a successful operation with nothing else to return
type MessageResponse struct {
	Message string `json:"message"`
}

// writeError maps package errors to a status code and a stable error code
func writeError(c *gin.Context, err error) {
	switch {
	case studio.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "session_not_found",
			Message: "Session not found",
		})
	case errors.Is(err, studio.ErrSessionClosed):
		c.JSON(http.StatusGone, ErrorResponse{
			Error:   "session_closed",
			Message: "Session has been closed",
		})
	case errors.Is(err, studio.ErrManagerStopped):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "service_unavailable",
			Message: "Studio is shutting down",
		})
	case errors.Is(err, catalog.ErrUnsupportedFormat):
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{
			Error:   "unsupported_format",
			Message: err.Error(),
		})
	case catalog.IsInvalid(err), errors.Is(err, studio.ErrInvalidTotalDuration):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_catalog",
			Message: err.Error(),
		})
	case errors.Is(err, playback.ErrSeekOutOfRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "seek_out_of_range",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}
