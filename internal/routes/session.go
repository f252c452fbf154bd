package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/auth"
)

// SessionRouteOptions carries the optional middlewares of session routes.
type SessionRouteOptions struct {
	LoginRateLimit fiber.Handler
	Idempotency    fiber.Handler
}

// RegisterSessionRoutes wires the session store operations.
func RegisterSessionRoutes(r fiber.Router, h *auth.Handler, opts SessionRouteOptions) {
	group := r.Group("/session")
	group.Get("", h.Snapshot)
	group.Post("/login", withOptional(opts.LoginRateLimit, h.Login)...)
	group.Post("/register", withOptional(opts.Idempotency, h.Register)...)
	group.Post("/logout", h.Logout)
	group.Patch("/profile", h.UpdateProfile)
}

func withOptional(mw fiber.Handler, h fiber.Handler) []fiber.Handler {
	if mw == nil {
		return []fiber.Handler{h}
	}
	return []fiber.Handler{mw, h}
}
