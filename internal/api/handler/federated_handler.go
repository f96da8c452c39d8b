package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/api/metrics"
	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

// StateCookie binds an in-flight handshake to the browser that started it.
const StateCookie = "secrets_oauth_state"

const stateCookiePath = "/auth/google"

// FederatedHandler drives the Google sign-in redirect and callback.
type FederatedHandler struct {
	federation ports.FederationService
	sessions   *Sessions
	stateTTL   time.Duration
	secure     bool
	log        zerolog.Logger
}

func NewFederatedHandler(
	federation ports.FederationService,
	sessions *Sessions,
	stateTTL time.Duration,
	secure bool,
	log zerolog.Logger,
) *FederatedHandler {
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	return &FederatedHandler{
		federation: federation,
		sessions:   sessions,
		stateTTL:   stateTTL,
		secure:     secure,
		log:        log,
	}
}

// Begin redirects the browser to the provider's consent page.
func (h *FederatedHandler) Begin(c echo.Context) error {
	url, state, err := h.federation.BeginHandshake(c.Request().Context())
	if err != nil {
		return err
	}
	c.SetCookie(h.stateCookie(state, int(h.stateTTL.Seconds())))
	return c.Redirect(http.StatusFound, url)
}

// Callback completes the handshake. Any failure sends the browser back to
// the login page.
func (h *FederatedHandler) Callback(c echo.Context) error {
	var expected string
	if cookie, err := c.Cookie(StateCookie); err == nil {
		expected = cookie.Value
	}
	c.SetCookie(h.stateCookie("", -1))

	started := time.Now()
	user, err := h.federation.CompleteHandshake(c.Request().Context(), ports.HandshakeCallback{
		State:         c.QueryParam("state"),
		Code:          c.QueryParam("code"),
		Error:         c.QueryParam("error"),
		ExpectedState: expected,
	})
	if err != nil {
		metrics.HandshakeDuration.WithLabelValues(metrics.ResultFailure).Observe(time.Since(started).Seconds())
		metrics.AuthAttemptsTotal.WithLabelValues(metrics.MethodGoogle, metrics.ResultFailure).Inc()
		if errors.Is(err, domain.ErrHandshakeFailed) {
			return c.Redirect(http.StatusFound, "/login")
		}
		return err
	}

	metrics.HandshakeDuration.WithLabelValues(metrics.ResultSuccess).Observe(time.Since(started).Seconds())
	metrics.AuthAttemptsTotal.WithLabelValues(metrics.MethodGoogle, metrics.ResultSuccess).Inc()
	if err := h.sessions.Start(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/secrets")
}

func (h *FederatedHandler) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookie,
		Value:    value,
		Path:     stateCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
