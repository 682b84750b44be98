package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation  = "https://pocketbook.app/errors/validation"
	ErrorTypeNotFound    = "https://pocketbook.app/errors/not-found"
	ErrorTypeConflict    = "https://pocketbook.app/errors/conflict"
	ErrorTypeInternal    = "https://pocketbook.app/errors/internal"
	ErrorTypeUnavailable = "https://pocketbook.app/errors/service-unavailable"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// fieldErrors maps validation sentinels to the request field they concern
var fieldErrors = []struct {
	err     error
	field   string
	message string
}{
	{domain.ErrTitleRequired, "title", "Title is required"},
	{domain.ErrTitleTooLong, "title", "Title must be 255 characters or less"},
	{domain.ErrNameRequired, "name", "Name is required"},
	{domain.ErrNameTooLong, "name", "Name must be 100 characters or less"},
	{domain.ErrNoteTooLong, "note", "Note must be 1000 characters or less"},
	{domain.ErrInvalidAmount, "amount", "Amount is invalid"},
	{domain.ErrDateRequired, "date", "Date is required"},
	{domain.ErrInvalidMonth, "month", "Month is out of range"},
	{domain.ErrInvalidYear, "year", "Year must be between 2000 and 2100"},
	{domain.ErrInvalidCategoryType, "type", "Type must be one of: expense, income"},
	{domain.ErrInvalidPeriod, "period", "Period must be one of: monthly, yearly"},
	{domain.ErrInvalidTheme, "theme", "Theme must be one of: light, dark"},
	{domain.ErrInvalidRole, "role", "Role must be one of: admin, member"},
	{domain.ErrEmailRequired, "email", "Email is required"},
	{domain.ErrInvalidEmail, "email", "Email is invalid"},
	{domain.ErrUnsupportedVersion, "version", "Unsupported snapshot version"},
	{service.ErrImageTooLarge, "file", "File too large. Maximum size is 10MB"},
	{service.ErrInvalidFormat, "file", "Invalid format. Supported: JPEG, PNG, GIF"},
	{service.ErrImageTooSmall, "file", "Image too small. Minimum 50x50 pixels"},
	{service.ErrInvalidImageData, "file", "Invalid image data"},
}

// NewServiceError maps an error returned by a service to a problem details
// response. Unknown errors are logged and reported as internal errors with
// the given detail.
func NewServiceError(c echo.Context, err error, detail string) error {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: fe.field, Message: fe.message},
			})
		}
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, capitalize(err.Error()))
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, capitalize(err.Error()), nil)
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrLastAdmin):
		return NewConflictError(c, capitalize(err.Error()))
	case errors.Is(err, service.ErrBlobStoreNotConfigured):
		return NewServiceUnavailableError(c, "Blob storage is not configured")
	}

	log.Error().
		Err(err).
		Str("path", c.Request().URL.Path).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg(detail)
	return NewInternalError(c, detail)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
