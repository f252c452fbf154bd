package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/neuro21/neuro21/internal/auth"
	"github.com/neuro21/neuro21/internal/session"
)

// SessionCookie carries the signed browser session token.
const SessionCookie = "neuro21_session"

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	Tokens   *auth.Tokens
	Registry *session.Registry
	Secure   bool
	Logger   *slog.Logger
}

// Session resolves the browser session of the request from its cookie or
// bearer token and binds the matching store. Requests without a valid token
// start a new session and receive a cookie for it.
func Session(cfg SessionConfig) fiber.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			token = bearerToken(c.Get(fiber.HeaderAuthorization))
		}

		var sid string
		if token != "" {
			parsed, err := cfg.Tokens.Parse(token)
			if err != nil {
				logger.Debug("discarding session token", slog.Any("error", err))
			}
			sid = parsed
		}
		if sid == "" {
			sid = uuid.NewString()
			signed, exp, err := cfg.Tokens.Issue(sid)
			if err != nil {
				logger.Error("issue session token", slog.Any("error", err))
				return fiber.NewError(fiber.StatusInternalServerError, "session unavailable")
			}
			setSessionCookie(c, signed, exp, cfg.Secure)
		}

		auth.Bind(c, sid, cfg.Registry.Get(c.UserContext(), sid))
		return c.Next()
	}
}

func setSessionCookie(c *fiber.Ctx, token string, exp time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func bearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
