package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/civiclens/civiclens-backend/internal/identity/domain"
	"github.com/civiclens/civiclens-backend/internal/identity/firebaseauth"
)

// AuthAPI is the slice of the Identity Toolkit surface the session manager
// uses. Satisfied by *firebaseauth.Client.
type AuthAPI interface {
	SignInWithPassword(ctx context.Context, email, password string) (*firebaseauth.Credentials, error)
	SignUp(ctx context.Context, email, password string) (*firebaseauth.Credentials, error)
	SignInAnonymously(ctx context.Context) (*firebaseauth.Credentials, error)
	SignInWithCustomToken(ctx context.Context, token string) (*firebaseauth.Credentials, error)
}

// TokenMinter mints Firebase custom tokens. Satisfied by the Admin SDK
// *auth.Client.
type TokenMinter interface {
	CustomToken(ctx context.Context, uid string) (string, error)
}

// GuestTokenStore hands out and consumes one-time guest token codes.
type GuestTokenStore interface {
	Mint(ctx context.Context, customToken string) (string, error)
	Redeem(ctx context.Context, code string) (string, error)
}

type subscriber struct {
	id int
	fn func(*domain.Identity)
}

// SessionManager tracks the current identity and notifies dependents on every
// transition. A failed entry path leaves the session unauthenticated; there is
// never a partial identity.
type SessionManager struct {
	authAPI AuthAPI
	minter  TokenMinter
	tokens  GuestTokenStore

	mu      sync.Mutex
	current *domain.Identity
	subs    []subscriber
	nextSub int
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(authAPI AuthAPI, minter TokenMinter, tokens GuestTokenStore) *SessionManager {
	return &SessionManager{
		authAPI: authAPI,
		minter:  minter,
		tokens:  tokens,
	}
}

// Current returns the current identity, or false when unauthenticated.
func (m *SessionManager) Current() (*domain.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, false
	}
	cp := *m.current
	return &cp, true
}

// Subscribe registers for identity-change notifications and returns a cancel
// handle. Notifications are delivered in registration order; a nil identity
// means the session became unauthenticated.
func (m *SessionManager) Subscribe(fn func(*domain.Identity)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// SignIn authenticates with email/password credentials.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	creds, err := m.authAPI.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, authError("sign in failed", err)
	}
	return m.establish(creds, false, ""), nil
}

// SignUp creates a credentialed account and signs it in.
func (m *SessionManager) SignUp(ctx context.Context, email, password, displayName string) (*domain.Session, error) {
	creds, err := m.authAPI.SignUp(ctx, email, password)
	if err != nil {
		return nil, authError("sign up failed", err)
	}
	return m.establish(creds, false, displayName), nil
}

// SignInGuest redeems a pre-supplied one-time token code, or falls back to
// anonymous identity creation when no code is supplied. A code that is
// unknown, expired, or already used fails the entry path.
func (m *SessionManager) SignInGuest(ctx context.Context, code string) (*domain.Session, error) {
	var (
		creds *firebaseauth.Credentials
		err   error
	)

	if code != "" {
		token, rerr := m.tokens.Redeem(ctx, code)
		if rerr != nil {
			if errors.Is(rerr, domain.ErrGuestTokenUsed) {
				return nil, domain.NewAuthError("guest link is invalid or has already been used", rerr)
			}
			return nil, authError("guest sign in failed", rerr)
		}
		creds, err = m.authAPI.SignInWithCustomToken(ctx, token)
	} else {
		creds, err = m.authAPI.SignInAnonymously(ctx)
	}
	if err != nil {
		return nil, authError("guest sign in failed", err)
	}

	return m.establish(creds, true, ""), nil
}

// MintGuestToken mints a custom token for a fresh guest identity and returns
// the one-time code that redeems it.
func (m *SessionManager) MintGuestToken(ctx context.Context) (string, error) {
	token, err := m.minter.CustomToken(ctx, "guest-"+uuid.New().String())
	if err != nil {
		return "", authError("could not mint guest token", err)
	}

	code, err := m.tokens.Mint(ctx, token)
	if err != nil {
		return "", authError("could not mint guest token", err)
	}

	return code, nil
}

// SignOut clears the session and notifies dependents. It is synchronous for
// the caller and always clears local state; Firebase has no server-side
// session to revoke.
func (m *SessionManager) SignOut() {
	m.publish(nil)
}

func (m *SessionManager) establish(creds *firebaseauth.Credentials, anonymous bool, displayName string) *domain.Session {
	ident := domain.Identity{
		UID:         creds.UID,
		Email:       creds.Email,
		DisplayName: displayName,
		Anonymous:   anonymous,
	}

	m.publish(&ident)

	return &domain.Session{
		Identity:     ident,
		IDToken:      creds.IDToken,
		RefreshToken: creds.RefreshToken,
		ExpiresIn:    creds.ExpiresIn,
	}
}

func (m *SessionManager) publish(ident *domain.Identity) {
	m.mu.Lock()
	m.current = ident
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(ident)
	}
}

// authError converts an Identity Toolkit failure into a user-facing message.
func authError(fallback string, err error) *domain.AuthError {
	var apiErr *firebaseauth.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
			return domain.NewAuthError("invalid email or password", err)
		case "EMAIL_EXISTS":
			return domain.NewAuthError("an account with this email already exists", err)
		case "WEAK_PASSWORD":
			return domain.NewAuthError("password is too weak", err)
		case "USER_DISABLED":
			return domain.NewAuthError("this account has been disabled", err)
		case "INVALID_CUSTOM_TOKEN", "CREDENTIAL_MISMATCH":
			return domain.NewAuthError("guest link is invalid or has already been used", err)
		case "TOO_MANY_ATTEMPTS_TRY_LATER":
			return domain.NewAuthError("too many attempts, try again later", err)
		}
	}
	return domain.NewAuthError(fallback, err)
}
