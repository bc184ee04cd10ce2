package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/koraei/bank/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *miniredis.Miniredis, *atomic.Int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	calls := &atomic.Int32{}
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/api/bank/deposit", func(c *fiber.Ctx) error {
		n := calls.Add(1)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"operationId": n, "status": "pending"})
	})
	app.Post("/api/bank/withdraw", func(c *fiber.Ctx) error {
		calls.Add(1)
		return fiber.NewError(fiber.StatusBadRequest, "amount must be greater than zero")
	})
	return app, mr, calls
}

func post(t *testing.T, app *fiber.App, path, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	app, _, calls := setupTestApp(t)

	for i := 0; i < 2; i++ {
		if status, _ := post(t, app, "/api/bank/deposit", ""); status != fiber.StatusOK {
			t.Fatalf("expected %d got %d", fiber.StatusOK, status)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls.Load())
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, _, calls := setupTestApp(t)

	status, payload := post(t, app, "/api/bank/deposit", "abc123")
	if status != fiber.StatusOK {
		t.Fatalf("expected status %d got %d", fiber.StatusOK, status)
	}

	// The second request must replay the stored response without running the handler.
	status, cached := post(t, app, "/api/bank/deposit", "abc123")
	if status != fiber.StatusOK {
		t.Fatalf("expected cached status %d got %d", fiber.StatusOK, status)
	}
	if cached != payload {
		t.Fatalf("expected cached payload %s got %s", payload, cached)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected handler to run once, ran %d", calls.Load())
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cached), &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyKeysAreScopedByRoute(t *testing.T) {
	app, mr, _ := setupTestApp(t)

	post(t, app, "/api/bank/deposit", "k1")
	if !mr.Exists(idempotencyPrefix + "POST:/api/bank/deposit:k1") {
		t.Fatal("expected stored response under route scoped key")
	}
}

func TestIdempotencyInFlightConflict(t *testing.T) {
	app, mr, calls := setupTestApp(t)
	if err := mr.Set(idempotencyPrefix+"POST:/api/bank/deposit:busy", inProgressMarker); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	if status, _ := post(t, app, "/api/bank/deposit", "busy"); status != fiber.StatusConflict {
		t.Fatalf("expected %d got %d", fiber.StatusConflict, status)
	}
	if calls.Load() != 0 {
		t.Fatal("handler should not run for an in-flight key")
	}
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	app, mr, calls := setupTestApp(t)

	for i := 0; i < 2; i++ {
		if status, _ := post(t, app, "/api/bank/withdraw", "retry"); status != fiber.StatusBadRequest {
			t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected failed request to be retryable, handler ran %d times", calls.Load())
	}
	if mr.Exists(idempotencyPrefix + "POST:/api/bank/withdraw:retry") {
		t.Fatal("failed response should not be stored")
	}
}
