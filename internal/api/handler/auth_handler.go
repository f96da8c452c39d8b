package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/api/metrics"
	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

// AuthHandler serves local registration, login and logout.
type AuthHandler struct {
	credentials ports.CredentialService
	sessions    *Sessions
	log         zerolog.Logger
}

func NewAuthHandler(credentials ports.CredentialService, sessions *Sessions, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{credentials: credentials, sessions: sessions, log: log}
}

// Register creates a local account and signs it in.
// Invalid input and taken usernames go back to the registration form.
func (h *AuthHandler) Register(c echo.Context) error {
	var form credentialsForm
	if err := bindForm(c, &form); err != nil {
		h.log.Debug().Err(err).Msg("registration rejected")
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return c.Redirect(http.StatusFound, "/register")
	}

	user, err := h.credentials.Register(c.Request().Context(), form.Username, form.Password)
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultDuplicate).Inc()
		return c.Redirect(http.StatusFound, "/register")
	case errors.Is(err, domain.ErrInvalidInput):
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return c.Redirect(http.StatusFound, "/register")
	case err != nil:
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	if err := h.sessions.Start(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/secrets")
}

// Login verifies local credentials. Every credential failure redirects to
// the login form without saying which part was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var form credentialsForm
	if err := bindForm(c, &form); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(metrics.MethodLocal, metrics.ResultInvalid).Inc()
		return c.Redirect(http.StatusFound, "/login")
	}

	user, err := h.credentials.Verify(c.Request().Context(), form.Username, form.Password)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidInput):
		metrics.AuthAttemptsTotal.WithLabelValues(metrics.MethodLocal, metrics.ResultFailure).Inc()
		return c.Redirect(http.StatusFound, "/login")
	case err != nil:
		metrics.AuthAttemptsTotal.WithLabelValues(metrics.MethodLocal, metrics.ResultError).Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues(metrics.MethodLocal, metrics.ResultSuccess).Inc()
	if err := h.sessions.Start(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/secrets")
}

// Logout ends the session. Anonymous requests are redirected all the same.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.End(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}
