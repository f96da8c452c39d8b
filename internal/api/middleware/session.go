package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

const (
	identityKey = "identity"
	tokenKey    = "session_token"
)

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	Skipper  echomiddleware.Skipper
	Sessions ports.SessionService
	Cookies  *CookieCodec
	Log      zerolog.Logger
}

// Session resolves the request's session cookie and attaches the identity
// to the context. Requests without a live session carry domain.Anonymous.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			token := cfg.Cookies.Token(c)
			identity, err := cfg.Sessions.Resolve(c.Request().Context(), token)
			if err != nil {
				cfg.Log.Error().Err(err).Str("path", c.Path()).Msg("session resolve failed")
				return err
			}

			if identity.IsAnonymous() {
				token = ""
			}
			c.Set(identityKey, identity)
			c.Set(tokenKey, token)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached by Session.
func IdentityFrom(c echo.Context) domain.Identity {
	identity, _ := c.Get(identityKey).(domain.Identity)
	return identity
}

// TokenFrom returns the live session token of the request, if any.
func TokenFrom(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}
