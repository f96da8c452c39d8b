package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PageHandler renders the static pages.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Home(c echo.Context) error {
	return c.Render(http.StatusOK, "home", newView(c, "Secrets"))
}

func (h *PageHandler) Login(c echo.Context) error {
	return c.Render(http.StatusOK, "login", newView(c, "Login"))
}

func (h *PageHandler) Register(c echo.Context) error {
	return c.Render(http.StatusOK, "register", newView(c, "Register"))
}

// Submit renders the submission form. Routed behind RequireAuth.
func (h *PageHandler) Submit(c echo.Context) error {
	return c.Render(http.StatusOK, "submit", newView(c, "Submit a Secret"))
}
