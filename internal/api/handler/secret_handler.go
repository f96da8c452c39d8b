package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/api/metrics"
	"github.com/sirpyerre/secrets/internal/api/middleware"
	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

type SecretHandler struct {
	secrets ports.SecretService
	log     zerolog.Logger
}

func NewSecretHandler(secrets ports.SecretService, log zerolog.Logger) *SecretHandler {
	return &SecretHandler{secrets: secrets, log: log}
}

// List renders every submitted secret. The page is public.
func (h *SecretHandler) List(c echo.Context) error {
	secrets, err := h.secrets.ListSecrets(c.Request().Context())
	if err != nil {
		return err
	}
	view := newView(c, "Secrets")
	view.Secrets = secrets
	return c.Render(http.StatusOK, "secrets", view)
}

// Submit stores the current user's secret, replacing any previous one.
func (h *SecretHandler) Submit(c echo.Context) error {
	var form submitForm
	if err := bindForm(c, &form); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return c.Redirect(http.StatusFound, "/submit")
	}

	err := h.secrets.Submit(c.Request().Context(), middleware.IdentityFrom(c), form.Secret)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		metrics.SubmissionsTotal.WithLabelValues(metrics.ResultDenied).Inc()
		return c.Redirect(http.StatusFound, "/login")
	case errors.Is(err, domain.ErrInvalidInput):
		metrics.SubmissionsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return c.Redirect(http.StatusFound, "/submit")
	case err != nil:
		metrics.SubmissionsTotal.WithLabelValues(metrics.ResultError).Inc()
		return err
	}

	metrics.SubmissionsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.Redirect(http.StatusFound, "/secrets")
}
