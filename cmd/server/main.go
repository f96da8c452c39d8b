// Package main starts the secrets web service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/secrets/internal/api"
	"github.com/sirpyerre/secrets/internal/api/middleware"
	"github.com/sirpyerre/secrets/internal/core/ports"
	"github.com/sirpyerre/secrets/internal/core/service"
	"github.com/sirpyerre/secrets/internal/infrastructure/config"
	"github.com/sirpyerre/secrets/internal/infrastructure/db/memory"
	mongodb "github.com/sirpyerre/secrets/internal/infrastructure/db/mongo"
	redisdb "github.com/sirpyerre/secrets/internal/infrastructure/db/redis"
	"github.com/sirpyerre/secrets/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/secrets/internal/infrastructure/oauth"
	"github.com/sirpyerre/secrets/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "secrets",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- User records ---
	var (
		users  ports.UserRepository
		checks []handlers.Check
	)
	switch cfg.UserStore {
	case config.StoreMongo:
		mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}()

		repo := mongodb.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		users = repo
		checks = append(checks, handlers.MongoCheck(db))
	default:
		log.Warn().Msg("using in-memory user store; accounts are lost on restart")
		users = memory.NewUserRepository()
	}

	// --- Sessions and handshake nonces ---
	var (
		sessionStore ports.SessionStore
		nonceStore   ports.NonceStore
	)
	switch cfg.Session.Store {
	case config.StoreRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessionStore = redisdb.NewSessionStore(rdb)
		nonceStore = redisdb.NewNonceStore(rdb)
		checks = append(checks, handlers.RedisCheck(rdb))
	default:
		log.Warn().Msg("using in-memory session store; sessions are lost on restart")
		sessionStore = memory.NewSessionStore()
		nonceStore = memory.NewNonceStore()
	}

	// --- Services ---
	provider := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.CallbackURL,
		UserInfoURL:  cfg.Google.UserInfoURL,
	})
	if cfg.Google.ClientID == "" {
		log.Warn().Msg("CLIENT_ID is empty; Google sign-in will fail")
	}

	federation := service.NewFederationService(
		provider,
		oauth.NewStateSigner(cfg.Session.Secret, cfg.Google.StateTTL),
		nonceStore,
		users,
		service.FederationOptions{StateTTL: cfg.Google.StateTTL, Timeout: cfg.Google.Timeout},
		log,
	)

	router, err := api.NewRouter(api.Dependencies{
		Log:           log,
		Credentials:   service.NewCredentialService(users, bcrypt.DefaultCost, log),
		Federation:    federation,
		Sessions:      service.NewSessionService(sessionStore, cfg.Session.IdleTimeout, log),
		Secrets:       service.NewSecretService(users, log),
		Cookies:       middleware.NewCookieCodec(cfg.Session.Secret, cfg.Session.CookieSecure),
		Health:        handlers.NewHealthHandler(checks...),
		StateTTL:      cfg.Google.StateTTL,
		SecureCookies: cfg.Session.CookieSecure,
	})
	if err != nil {
		return err
	}

	// --- Serve until signalled ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
