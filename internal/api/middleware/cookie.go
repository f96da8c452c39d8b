package middleware

import (
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

// SessionCookie carries the signed session token.
const SessionCookie = "secrets_session"

// CookieCodec signs and reads the session cookie.
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewCookieCodec signs cookie values with secret. Expiry is enforced by the
// session store, so the signed value itself carries no age limit.
func NewCookieCodec(secret string, secure bool) *CookieCodec {
	sc := securecookie.New([]byte(secret), nil)
	sc.MaxAge(0)
	return &CookieCodec{sc: sc, secure: secure}
}

// Token returns the session token carried by the request, or "" when the
// cookie is missing or fails verification.
func (cc *CookieCodec) Token(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	var token string
	if err := cc.sc.Decode(SessionCookie, cookie.Value, &token); err != nil {
		return ""
	}
	return token
}

// SetToken writes token into the session cookie.
func (cc *CookieCodec) SetToken(c echo.Context, token string) error {
	encoded, err := cc.sc.Encode(SessionCookie, token)
	if err != nil {
		return err
	}
	c.SetCookie(cc.cookie(encoded, 0))
	return nil
}

// Clear expires the session cookie.
func (cc *CookieCodec) Clear(c echo.Context) {
	c.SetCookie(cc.cookie("", -1))
}

func (cc *CookieCodec) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cc.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
