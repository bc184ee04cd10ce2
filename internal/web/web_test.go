package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koraei/bank/internal/logging"
)

var errMissing = errors.New("thing not found")

type payload struct {
	Name   string  `json:"name" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: NewErrorHandler(logging.Discard(), []ErrorMapping{
			{Err: errMissing, Status: fiber.StatusNotFound, Title: "Not found"},
		}),
	})
	app.Post("/bind", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[payload](c)
		if err != nil {
			return err
		}
		return c.JSON(in)
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("load: %w", errMissing)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	return app
}

func decodeProblem(t *testing.T, app *fiber.App, method, path, body string) (int, ProblemDetails, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	return resp.StatusCode, pd, resp.Header.Get(fiber.HeaderContentType)
}

func TestBindAndValidate(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(fiber.MethodPost, "/bind", strings.NewReader(`{"name":"a","amount":2.5}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	status, pd, ctype := decodeProblem(t, app, fiber.MethodPost, "/bind", `{"name":"a","amount":0}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", pd.Title)
	assert.Equal(t, problemContentType, ctype)

	status, pd, _ = decodeProblem(t, app, fiber.MethodPost, "/bind", `{"name":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", pd.Title)
}

func TestErrorHandlerMappings(t *testing.T) {
	app := newTestApp()

	status, pd, ctype := decodeProblem(t, app, fiber.MethodGet, "/missing", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, problemContentType, ctype)
	assert.Equal(t, "/missing", pd.Instance)
	assert.Contains(t, pd.Detail, "thing not found")

	status, pd, _ = decodeProblem(t, app, fiber.MethodGet, "/boom", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "boom", pd.Detail)

	status, pd, ctype = decodeProblem(t, app, fiber.MethodGet, "/teapot", "")
	assert.Equal(t, fiber.StatusTeapot, status)
	assert.Equal(t, problemContentType, ctype)
	assert.Equal(t, "short and stout", pd.Detail)
}
