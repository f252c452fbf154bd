package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func loginApp(cache *redis.Client, perMin int) *fiber.App {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, perMin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func attempt(t *testing.T, app *fiber.App, email string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`","password":"x"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestLoginRateLimitWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := loginApp(cache, 2)
	for i := 0; i < 2; i++ {
		if code := attempt(t, app, "ada@example.com"); code != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i, code)
		}
	}
	if code := attempt(t, app, "ADA@example.com"); code != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", code)
	}
	if code := attempt(t, app, "grace@example.com"); code != fiber.StatusOK {
		t.Fatalf("other email: expected 200 got %d", code)
	}

	mr.FastForward(time.Minute + time.Second)
	if code := attempt(t, app, "ada@example.com"); code != fiber.StatusOK {
		t.Fatalf("after window: expected 200 got %d", code)
	}
}

func TestLoginRateLimitInProcess(t *testing.T) {
	app := loginApp(nil, 3)
	for i := 0; i < 3; i++ {
		if code := attempt(t, app, "ada@example.com"); code != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i, code)
		}
	}
	if code := attempt(t, app, "ada@example.com"); code != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", code)
	}
}

func TestVisitorsRefillAndCleanup(t *testing.T) {
	v := newVisitors(1)
	now := time.Now()
	v.now = func() time.Time { return now }

	if !v.allow("k") {
		t.Fatalf("first attempt should pass")
	}
	if v.allow("k") {
		t.Fatalf("second attempt should be limited")
	}
	now = now.Add(time.Minute)
	if !v.allow("k") {
		t.Fatalf("token should refill after a minute")
	}

	now = now.Add(5 * time.Minute)
	v.allow("other")
	if _, ok := v.byKey["k"]; ok {
		t.Fatalf("expected idle key to be dropped")
	}
}
