package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koraei/bank/internal/logging"
	"github.com/koraei/bank/internal/web"
)

func newHandlerApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: web.NewErrorHandler(logging.Discard(), []web.ErrorMapping{
			{Err: ErrUserNotFound, Status: http.StatusNotFound, Title: "Not found"},
			{Err: ErrDuplicateIDCard, Status: http.StatusConflict, Title: "Conflict"},
		}),
	})
	h := NewHandler(NewService(NewMemoryRepository()))
	app.Get("/api/users", h.List)
	app.Get("/api/users/:id", h.Get)
	app.Post("/api/users", h.Create)
	app.Put("/api/users/:id", h.Update)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestHandlerCreateGetUpdate(t *testing.T) {
	app := newHandlerApp()

	resp := send(t, app, fiber.MethodPost, "/api/users", `{"firstName":"Sara","lastName":"Karimi","phone":"0912","idCard":"001"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, int64(1), created.ID)

	resp = send(t, app, fiber.MethodGet, "/api/users/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, app, fiber.MethodPut, "/api/users/1", `{"firstName":"Sara","lastName":"Ahmadi","phone":"0913"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "Ahmadi", updated.LastName)
	assert.Equal(t, "001", updated.IDCard)

	resp = send(t, app, fiber.MethodGet, "/api/users", "")
	var all []Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	assert.Len(t, all, 1)
}

func TestHandlerErrors(t *testing.T) {
	app := newHandlerApp()

	resp := send(t, app, fiber.MethodGet, "/api/users/99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = send(t, app, fiber.MethodGet, "/api/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = send(t, app, fiber.MethodPost, "/api/users", `{"firstName":"Sara"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := `{"firstName":"A","lastName":"B","phone":"1","idCard":"same"}`
	require.Equal(t, http.StatusCreated, send(t, app, fiber.MethodPost, "/api/users", body).StatusCode)
	resp = send(t, app, fiber.MethodPost, "/api/users", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
