package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tracker000/gridtrack/internal/auth"
	"github.com/tracker000/gridtrack/internal/cache"
	"github.com/tracker000/gridtrack/internal/config"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/http/handlers"
	"github.com/tracker000/gridtrack/internal/http/middlewares"
	"github.com/tracker000/gridtrack/internal/notifications"
	"github.com/tracker000/gridtrack/internal/observability"
)

// Stores bundles the persistence ports the router wires into handlers. Both
// drivers (postgres and the file-backed snapshots) satisfy these.
type Stores struct {
	Accounts handlers.AccountStore
	Profiles handlers.ProfileStore
	Resets   handlers.ResetStore
	Managers handlers.ManagerStore
	Cells    handlers.CellStore
}

type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Stores   Stores
	Sessions interface {
		handlers.SessionManager
		middlewares.SessionResolver
	}
	Tokens   *auth.Manager
	Cache    cache.Store
	Notifier notifications.Notifier
	Prom     *observability.Prom

	// Ping probes the backing store for readiness; nil means always ready.
	Ping func() error

	// Tracing toggles the otelgin middleware; only set when the OTLP
	// exporter was actually initialised.
	Tracing bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))

	if d.Cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	}

	if d.Tracing {
		r.Use(otelgin.Middleware("gridtrack-api"))
	}

	if d.Prom == nil {
		d.Prom = observability.NewProm(prometheus.NewRegistry())
	}

	r.Use(d.Prom.GinHandleMiddleware())

	// health + metrics

	health := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// handlers

	authHandler := handlers.NewAuthHandler(d.Stores.Accounts, d.Sessions, d.Stores.Resets, d.Tokens, d.Notifier, d.Log)
	profileHandler := handlers.NewProfileHandler(d.Stores.Profiles)
	cellsHandler := handlers.NewCellsHandler(d.Stores.Cells, d.Cache, d.Prom)
	managersHandler := handlers.NewManagersHandler(d.Stores.Managers)
	adminUsersHandler := handlers.NewAdminUsersHandler(d.Stores.Accounts, d.Tokens)

	authMW := middlewares.NewAuthMiddleware(d.Sessions)

	// the credential endpoints share one limiter bucket per client
	credLimiter := middlewares.NewRateLimiter(10, time.Minute)

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())

	// public
	api.POST("/register", credLimiter.Middleware(), authHandler.Register)
	api.POST("/login", credLimiter.Middleware(), authHandler.Login)
	api.POST("/forgot-password", credLimiter.Middleware(), authHandler.ForgotPassword)
	api.POST("/reset-password", authHandler.ResetPassword)
	api.GET("/cells", cellsHandler.ListCells)

	// any authenticated account
	authed := api.Group("")
	authed.Use(authMW.RequireAuth())
	authed.POST("/logout", authHandler.Logout)
	authed.GET("/me", profileHandler.Me)
	authed.POST("/update-profile", profileHandler.UpdateProfile)

	// admin only
	admin := api.Group("")
	admin.Use(authMW.RequireAuth(), authMW.RequireRole(account.RoleAdmin))
	admin.POST("/save-cell", cellsHandler.SaveCell)
	admin.GET("/managers", managersHandler.List)
	admin.POST("/add-manager", managersHandler.Create)

	// legacy path, kept off the /api prefix
	r.POST("/add-user", middlewares.RequireJSON(), authMW.RequireAuth(), authMW.RequireRole(account.RoleAdmin), adminUsersHandler.AddUser)

	return r
}
