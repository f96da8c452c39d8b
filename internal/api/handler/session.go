package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/api/metrics"
	"github.com/sirpyerre/secrets/internal/api/middleware"
	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

// Sessions starts and ends browser sessions on behalf of the auth handlers.
type Sessions struct {
	svc     ports.SessionService
	cookies *middleware.CookieCodec
	log     zerolog.Logger
}

func NewSessions(svc ports.SessionService, cookies *middleware.CookieCodec, log zerolog.Logger) *Sessions {
	return &Sessions{svc: svc, cookies: cookies, log: log}
}

// Start replaces any session the request carries with a new one for user.
func (s *Sessions) Start(c echo.Context, user *domain.User) error {
	ctx := c.Request().Context()

	if old := middleware.TokenFrom(c); old != "" {
		if err := s.svc.Destroy(ctx, old); err != nil {
			return err
		}
	}

	token, err := s.svc.Establish(ctx, user)
	if err != nil {
		return err
	}
	if err := s.cookies.SetToken(c, token); err != nil {
		_ = s.svc.Destroy(ctx, token)
		return err
	}

	metrics.SessionsTotal.WithLabelValues(metrics.EventEstablished).Inc()
	return nil
}

// End destroys the request's session, if any, and clears the cookie.
func (s *Sessions) End(c echo.Context) error {
	s.cookies.Clear(c)

	token := middleware.TokenFrom(c)
	if token == "" {
		return nil
	}
	if err := s.svc.Destroy(c.Request().Context(), token); err != nil {
		return err
	}

	metrics.SessionsTotal.WithLabelValues(metrics.EventDestroyed).Inc()
	s.log.Info().Str("user_id", middleware.IdentityFrom(c).UserID).Msg("session ended")
	return nil
}
