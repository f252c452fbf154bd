package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/neuro21/neuro21/internal/auth"
	"github.com/neuro21/neuro21/internal/config"
	"github.com/neuro21/neuro21/internal/gate"
	"github.com/neuro21/neuro21/internal/identity"
	"github.com/neuro21/neuro21/internal/journey"
	"github.com/neuro21/neuro21/internal/metrics"
	"github.com/neuro21/neuro21/internal/middleware"
	"github.com/neuro21/neuro21/internal/network"
	"github.com/neuro21/neuro21/internal/notification"
	"github.com/neuro21/neuro21/internal/session"
	"github.com/neuro21/neuro21/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. It returns the
// session registry so the caller can run its sweeper.
func Setup(app *fiber.App, d Deps) (*session.Registry, error) {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	storage, err := sessionStorage(d)
	if err != nil {
		return nil, err
	}

	connector := walletConnector(d.Cfg)
	m := metrics.New()
	notifier := notification.NewLoggerNotifier(d.Logger)
	registry := session.NewRegistry(session.Deps{
		Storage:       storage,
		Authenticator: authenticator(d),
		Wallet:        connector,
		Logger:        d.Logger,
	}, func(sid string, store *session.Store) {
		m.ObserveStore(store)
		notification.Watch(sid, store, notifier)
	})
	m.TrackActiveSessions(registry.Len)

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(m.Middleware())

	// Health and metrics
	RegisterHealthRoutes(app, d)
	if d.Cfg.MetricsUser != "" && d.Cfg.MetricsPass != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{d.Cfg.MetricsUser: d.Cfg.MetricsPass},
			Realm: "Metrics",
		}), m.Handler())
	} else {
		app.Get("/metrics", m.Handler())
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID := middleware.RequestIDFrom(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	RegisterNetworkRoutes(api, network.Target(d.Cfg.Network))

	tokens := auth.NewTokens(d.Cfg.SessionSecret, d.Cfg.SessionTTL)
	sessioned := api.Group("", middleware.Session(middleware.SessionConfig{
		Tokens:   tokens,
		Registry: registry,
		Secure:   !d.Cfg.IsDev(),
		Logger:   d.Logger,
	}), middleware.Audit(d.Logger))

	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterSessionRoutes(sessioned, auth.NewHandler(connector), SessionRouteOptions{
		LoginRateLimit: middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRatePerMin),
		Idempotency:    idempotency,
	})
	RegisterWalletRoutes(sessioned, wallet.NewHandler(connector))

	guard := gate.NewGuard(auth.State, m.ObserveGate)
	RegisterPageRoutes(sessioned, guard, journey.NewHandler())

	return registry, nil
}

func sessionStorage(d Deps) (session.Storage, error) {
	backend := d.Cfg.SessionStore
	if backend == "" {
		switch {
		case d.Cache != nil:
			backend = config.SessionStoreRedis
		case d.DB != nil:
			backend = config.SessionStorePostgres
		default:
			backend = config.SessionStoreMemory
		}
	}
	switch backend {
	case config.SessionStoreRedis:
		if d.Cache == nil {
			return nil, fmt.Errorf("SESSION_STORE=redis requires REDIS_URL")
		}
		return session.NewRedisStorage(d.Cache, "", d.Cfg.SessionTTL), nil
	case config.SessionStorePostgres:
		if d.DB == nil {
			return nil, fmt.Errorf("SESSION_STORE=postgres requires DATABASE_URL")
		}
		return session.NewPostgresStorage(d.DB), nil
	default:
		d.Logger.Warn("session records are kept in memory and lost on restart")
		return session.NewMemoryStorage(), nil
	}
}

func authenticator(d Deps) session.Authenticator {
	if d.Cfg.AuthMode == config.AuthModeDemo {
		d.Logger.Warn("demo authentication enabled: credentials are not verified")
		return auth.Demo{LoginDelay: d.Cfg.LoginDelay, RegisterDelay: d.Cfg.RegisterDelay}
	}
	var repo identity.Repository
	if d.DB != nil {
		repo = identity.NewPostgresRepository(d.DB)
	} else {
		repo = identity.NewMemoryRepository()
	}
	return identity.NewService(repo)
}

func walletConnector(cfg config.Config) *wallet.Connector {
	var provider wallet.Provider
	if cfg.WalletRPCURL != "" {
		provider = wallet.NewRPCProvider(cfg.WalletRPCURL, cfg.WalletRPCTimeout)
	}
	return wallet.NewConnector(provider, network.Target(cfg.Network), cfg.SyntheticWallet)
}
