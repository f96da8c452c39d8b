package domain

import "errors"

var (
	ErrDuplicateUsername    = errors.New("username already registered")
	ErrDuplicateFederatedID = errors.New("federated identity already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrHandshakeFailed      = errors.New("federated handshake failed")
	ErrUnauthorized         = errors.New("authentication required")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrUserNotFound         = errors.New("user not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidInput         = errors.New("invalid input")
)
