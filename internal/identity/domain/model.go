package domain

import "errors"

// Identity is the authenticated or anonymous principal performing actions.
// It is owned by the session manager and read-only everywhere else.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Anonymous   bool   `json:"anonymous"`
}

// Session is the result of a successful entry path: the identity plus the
// tokens the presentation layer needs for subsequent authenticated calls.
type Session struct {
	Identity     Identity `json:"identity"`
	IDToken      string   `json:"id_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
}

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrGuestTokenUsed   = errors.New("guest token already redeemed or expired")
)

// AuthError wraps a failure on any entry path. The message is surfaced
// verbatim to the user; the session stays unauthenticated.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError builds an AuthError with a human-readable message.
func NewAuthError(message string, err error) *AuthError {
	return &AuthError{Message: message, Err: err}
}
