package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// LoginRateLimit limits login attempts per email or IP. Redis counts
// attempts when configured; otherwise an in-process token bucket per key is
// used.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	local := newVisitors(maxPerMin)
	return func(c *fiber.Ctx) error {
		var req struct {
			Email string `json:"email"`
		}
		_ = c.BodyParser(&req)
		subject := strings.ToLower(strings.TrimSpace(req.Email))
		if subject == "" {
			subject = c.IP()
		}

		if cache == nil {
			if !local.allow(subject) {
				return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
			}
			return c.Next()
		}

		key := "rl:login:" + subject
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
		}
		return c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one limiter per key refilling maxPerMin tokens a minute.
type visitors struct {
	mu        sync.Mutex
	perMinute int
	byKey     map[string]*visitor
	now       func() time.Time
}

func newVisitors(perMinute int) *visitors {
	return &visitors{perMinute: perMinute, byKey: make(map[string]*visitor), now: time.Now}
}

func (v *visitors) allow(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()
	vis, ok := v.byKey[key]
	if !ok {
		vis = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(v.perMinute)), v.perMinute)}
		v.byKey[key] = vis
	}
	vis.lastSeen = now
	v.cleanup(now)
	return vis.limiter.AllowN(now, 1)
}

// cleanup drops keys idle for more than three minutes. Callers hold mu.
func (v *visitors) cleanup(now time.Time) {
	for key, vis := range v.byKey {
		if now.Sub(vis.lastSeen) > 3*time.Minute {
			delete(v.byKey, key)
		}
	}
}
