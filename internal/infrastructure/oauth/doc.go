// Package oauth adapts an external OAuth2 identity provider to the
// federation ports: the Google authorization-code exchange and the signed
// state parameter that binds a callback to the handshake that started it.
package oauth
