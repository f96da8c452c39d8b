package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
)

var errInvalidForm = errors.New("invalid form")

// credentialsForm is posted by both the login and the registration page.
// Password length is capped at bcrypt's 72 byte input limit.
type credentialsForm struct {
	Username string `form:"username" validate:"required,max=64"`
	Password string `form:"password" validate:"required,maxbytes=72"`
}

type submitForm struct {
	Secret string `form:"secret" validate:"required,max=1000"`
}

// bindForm binds and validates a posted form into dst.
func bindForm(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errors.Join(errInvalidForm, err)
	}
	if err := c.Validate(dst); err != nil {
		return errors.Join(errInvalidForm, err)
	}
	return nil
}
