package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/secrets/internal/api/middleware"
	"github.com/sirpyerre/secrets/internal/core/domain"
)

// View is the data every page template receives.
type View struct {
	Title    string
	Identity domain.Identity
	Secrets  []string
}

// Authenticated drives the header links.
func (v View) Authenticated() bool { return !v.Identity.IsAnonymous() }

func newView(c echo.Context, title string) View {
	return View{Title: title, Identity: middleware.IdentityFrom(c)}
}
