package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the wire shape of every rejection produced by the auth
// boundary.  Timestamp is RFC3339 UTC; Path echoes the request path so
// clients and log pipelines can correlate rejections.
type ErrorBody struct {
	Status    int    `json:"status"`
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

// Reject writes a structured rejection response with the given status.
func Reject(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{
		Status:    status,
		Error:     true,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request().URL.Path,
	})
}
