package gate

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/session"
)

// Resolver returns the session snapshot of a request.
type Resolver func(c *fiber.Ctx) session.State

// Observer is told about every decision taken for a page.
type Observer func(page string, outcome Outcome)

// RetryAfterSeconds is advertised while a session is still loading.
const RetryAfterSeconds = 1

const stateLocalsKey = "gate_state"

// Guard turns policies into Fiber handlers.
type Guard struct {
	resolve Resolver
	observe Observer
}

// NewGuard builds a guard. observe may be nil.
func NewGuard(resolve Resolver, observe Observer) *Guard {
	return &Guard{resolve: resolve, observe: observe}
}

// Protect returns a handler that lets the request through only when p grants
// access to the request's session; otherwise it responds with the screen.
func (g *Guard) Protect(page string, p Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := g.resolve(c)
		d := Evaluate(st, p)
		if g.observe != nil {
			g.observe(page, d.Outcome)
		}
		if d.Allowed() {
			c.Locals(stateLocalsKey, st)
			return c.Next()
		}
		if d.Outcome == Loading {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds))
		}
		return c.Status(StatusFor(d)).JSON(d.Screen)
	}
}

// Snapshot returns the session state a guard granted access with. Handlers
// behind a guard read it instead of the live store, which may have changed.
func Snapshot(c *fiber.Ctx) session.State {
	st, _ := c.Locals(stateLocalsKey).(session.State)
	return st
}

// StatusFor maps a decision to an HTTP status. A fallback keeps the status
// of the denial it replaces.
func StatusFor(d Decision) int {
	outcome := d.Outcome
	if outcome == Fallback {
		outcome = d.Denied
	}
	switch outcome {
	case Granted:
		return http.StatusOK
	case Loading:
		return http.StatusServiceUnavailable
	case AccessRequired:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}
