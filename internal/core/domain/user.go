package domain

import "time"

// User is the sole persisted entity. A user is either local (Username and
// PasswordHash set) or federated (FederatedID set), never both.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"-"`
	FederatedID  string    `json:"federated_id,omitempty"`
	Secret       string    `json:"secret,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewLocalUser builds an unsaved local account from an already hashed password.
func NewLocalUser(username, passwordHash string, now time.Time) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewFederatedUser builds an unsaved account for a provider subject identifier.
func NewFederatedUser(federatedID string, now time.Time) *User {
	return &User{
		FederatedID: federatedID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *User) IsLocal() bool     { return u.PasswordHash != "" }
func (u *User) IsFederated() bool { return u.FederatedID != "" }
func (u *User) HasSecret() bool   { return u.Secret != "" }

// Validate checks the registration-path invariant before the user is stored.
func (u *User) Validate() error {
	switch {
	case u.IsLocal() && u.IsFederated():
		return ErrInvalidInput
	case u.IsLocal() && u.Username == "":
		return ErrInvalidInput
	case !u.IsLocal() && u.Username != "":
		return ErrInvalidInput
	}
	return nil
}

// Identity is the minimal view of a user carried by a session.
type Identity struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Federated bool      `json:"federated,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Anonymous is the identity of a request without a valid session.
var Anonymous = Identity{}

// IsAnonymous reports whether no user is attached.
func (i Identity) IsAnonymous() bool { return i.UserID == "" }

// IdentityOf returns the session view of u.
func IdentityOf(u *User, now time.Time) Identity {
	return Identity{
		UserID:    u.ID,
		Username:  u.Username,
		Federated: u.IsFederated(),
		CreatedAt: now,
	}
}
