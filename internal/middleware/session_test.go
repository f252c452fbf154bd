package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/auth"
	"github.com/neuro21/neuro21/internal/logging"
	"github.com/neuro21/neuro21/internal/session"
)

func setupSessionApp(t *testing.T) (*fiber.App, *auth.Tokens, *session.Registry) {
	t.Helper()
	tokens := auth.NewTokens("test-secret", time.Hour)
	registry := session.NewRegistry(session.Deps{Storage: session.NewMemoryStorage(), Logger: logging.Discard()}, nil)

	app := fiber.New()
	app.Use(Session(SessionConfig{Tokens: tokens, Registry: registry, Logger: logging.Discard()}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if auth.StoreFrom(c) == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "no store")
		}
		return c.SendString(auth.SessionID(c))
	})
	return app, tokens, registry
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			return ck
		}
	}
	return nil
}

func TestSessionIssuesCookieForNewVisitor(t *testing.T) {
	app, tokens, registry := setupSessionApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	ck := sessionCookie(resp)
	if ck == nil {
		t.Fatalf("expected %s cookie", SessionCookie)
	}
	if !ck.HttpOnly {
		t.Fatalf("expected http-only cookie")
	}
	sid, err := tokens.Parse(ck.Value)
	if err != nil {
		t.Fatalf("parse cookie: %v", err)
	}
	if registry.Len() != 1 {
		t.Fatalf("expected one store, got %d", registry.Len())
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: ck.Value})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if sessionCookie(resp) != nil {
		t.Fatalf("did not expect a new cookie for a known session")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != sid {
		t.Fatalf("expected sid %s, got %s", sid, string(body))
	}
	if registry.Len() != 1 {
		t.Fatalf("expected store reuse, got %d stores", registry.Len())
	}
}

func TestSessionAcceptsBearerToken(t *testing.T) {
	app, tokens, _ := setupSessionApp(t)
	signed, _, err := tokens.Issue("bearer-sid")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if sessionCookie(resp) != nil {
		t.Fatalf("did not expect a cookie for a bearer session")
	}
}

func TestSessionReplacesForgedToken(t *testing.T) {
	app, _, _ := setupSessionApp(t)
	forged, _, _ := auth.NewTokens("other-secret", time.Hour).Issue("victim")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: forged})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if sessionCookie(resp) == nil {
		t.Fatalf("expected a fresh session cookie")
	}
}
