package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// problemDetails represents an RFC 7807 Problem Details response
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Error types
const (
	errorTypeRateLimit = "https://pocketbook.app/errors/rate-limit"
	errorTypeInternal  = "https://pocketbook.app/errors/internal"
)

// rateLimitError creates a 429 response
func rateLimitError(c echo.Context, detail string) error {
	return c.JSON(http.StatusTooManyRequests, problemDetails{
		Type:     errorTypeRateLimit,
		Title:    "Rate Limit Exceeded",
		Status:   http.StatusTooManyRequests,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// ProblemErrorHandler renders errors that escape handlers (unknown routes,
// bad methods, panics caught by Recover) as problem details.
func ProblemErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	title := http.StatusText(status)
	detail := "An unexpected error occurred"
	errType := errorTypeInternal

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		title = http.StatusText(status)
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
		errType = "https://pocketbook.app/errors/" + strings.ReplaceAll(strings.ToLower(title), " ", "-")
	}

	if status >= http.StatusInternalServerError {
		logRequestError(c, err)
	}

	body := problemDetails{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		logRequestError(c, writeErr)
	}
}
