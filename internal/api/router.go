package api

import (
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/api/handler"
	"github.com/sirpyerre/secrets/internal/api/middleware"
	"github.com/sirpyerre/secrets/internal/core/ports"
	"github.com/sirpyerre/secrets/internal/infrastructure/http/handlers"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Log         zerolog.Logger
	Credentials ports.CredentialService
	Federation  ports.FederationService
	Sessions    ports.SessionService
	Secrets     ports.SecretService
	Cookies     *middleware.CookieCodec
	Health      *handlers.HealthHandler

	// StateTTL bounds how long a federated sign-in may take.
	StateTTL      time.Duration
	SecureCookies bool

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Health == nil {
		deps.Health = handlers.NewHealthHandler()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.BodyLimit("64K"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "secrets",
		Registerer: deps.Registerer,
		Skipper:    isProbe,
	}))
	e.Use(middleware.Session(middleware.SessionConfig{
		Skipper:  isProbe,
		Sessions: deps.Sessions,
		Cookies:  deps.Cookies,
		Log:      deps.Log,
	}))

	// --- Dependencies ---
	sessions := handler.NewSessions(deps.Sessions, deps.Cookies, deps.Log)
	pages := handler.NewPageHandler()
	auth := handler.NewAuthHandler(deps.Credentials, sessions, deps.Log)
	federated := handler.NewFederatedHandler(deps.Federation, sessions, deps.StateTTL, deps.SecureCookies, deps.Log)
	secrets := handler.NewSecretHandler(deps.Secrets, deps.Log)
	requireAuth := middleware.RequireAuth("/login")

	// --- Pages ---
	e.GET("/", pages.Home)
	e.GET("/login", pages.Login)
	e.GET("/register", pages.Register)
	e.GET("/secrets", secrets.List)
	e.GET("/submit", pages.Submit, requireAuth)

	// --- Local accounts ---
	e.POST("/register", auth.Register)
	e.POST("/login", auth.Login)
	e.POST("/submit", secrets.Submit, requireAuth)
	e.GET("/logout", auth.Logout)

	// --- Google sign-in ---
	e.GET("/auth/google", federated.Begin)
	e.GET("/auth/google/secrets", federated.Callback)

	// --- Probes and metrics (no session) ---
	e.GET("/health", deps.Health.Liveness)
	e.GET("/health/ready", deps.Health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))

	return e, nil
}

func isProbe(c echo.Context) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health")
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
