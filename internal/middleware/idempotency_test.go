package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/agbado/agbado/internal/logging"
)

func setupIdempotencyApp(t *testing.T) (*fiber.App, *atomic.Int64) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	var handled atomic.Int64
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/resource", func(c *fiber.Ctx) error {
		handled.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
	})
	return app, &handled
}

func postResource(t *testing.T, app *fiber.App, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/resource", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _ := setupIdempotencyApp(t)

	status, _ := postResource(t, app, "")
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, handled := setupIdempotencyApp(t)

	status, body := postResource(t, app, "abc123")
	require.Equal(t, fiber.StatusCreated, status)

	status2, body2 := postResource(t, app, "abc123")
	require.Equal(t, fiber.StatusCreated, status2)
	require.Equal(t, body, body2)
	require.Equal(t, int64(1), handled.Load())
}

func TestIdempotencyDistinctKeysRunSeparately(t *testing.T) {
	app, handled := setupIdempotencyApp(t)

	status, _ := postResource(t, app, "key-1")
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = postResource(t, app, "key-2")
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, int64(2), handled.Load())
}
