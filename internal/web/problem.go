// Package web holds the HTTP plumbing shared by handlers: problem details
// responses, error to status mapping and request binding.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const problemContentType = "application/problem+json"

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// ErrorResponseJSON writes a problem details response.
func ErrorResponseJSON(c *fiber.Ctx, status int, title string, detail any) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Instance: c.OriginalURL(),
	}
	if detail != nil {
		if s, ok := detail.(string); ok {
			pd.Detail = s
		} else {
			pd.Errors = detail
		}
	}
	return c.Status(status).JSON(pd, problemContentType)
}

// ErrorMapping binds a sentinel error to the status and title reported for it.
type ErrorMapping struct {
	Err    error
	Status int
	Title  string
}

// NewErrorHandler returns a fiber error handler that renders every error as
// problem details. Mappings are checked in order with errors.Is; unmatched
// errors become 500 responses carrying the error message.
func NewErrorHandler(logger *slog.Logger, mappings []ErrorMapping) fiber.ErrorHandler {
	all := append([]ErrorMapping{
		{Err: ErrBadRequest, Status: http.StatusBadRequest, Title: "Invalid request body"},
		{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Validation failed"},
	}, mappings...)

	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ErrorResponseJSON(c, fe.Code, http.StatusText(fe.Code), fe.Message)
		}

		for _, m := range all {
			if errors.Is(err, m.Err) {
				return ErrorResponseJSON(c, m.Status, m.Title, err.Error())
			}
		}

		logger.Error("unhandled request error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return ErrorResponseJSON(c, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
