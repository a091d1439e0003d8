package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens-backend/internal/api/http/middleware"
	identitydomain "github.com/civiclens/civiclens-backend/internal/identity/domain"
)

// SessionService is the session manager surface the auth handlers use.
type SessionService interface {
	SignIn(ctx context.Context, email, password string) (*identitydomain.Session, error)
	SignUp(ctx context.Context, email, password, displayName string) (*identitydomain.Session, error)
	SignInGuest(ctx context.Context, code string) (*identitydomain.Session, error)
	MintGuestToken(ctx context.Context) (string, error)
	SignOut()
}

// Login authenticates with email/password credentials.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Signup creates a credentialed account and signs it in.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.sessions.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// Guest redeems a one-time guest code, or creates an anonymous identity when
// no code is supplied.
func (h *Handler) Guest(c *gin.Context) {
	// A chunked request reports no ContentLength, so always attempt the bind;
	// an empty body just means anonymous sign-in.
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	session, err := h.sessions.SignInGuest(c.Request.Context(), req.Code)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Logout clears the session state and notifies dependents. The bearer token
// itself stays valid until it expires; Firebase keeps no server-side session
// to revoke.
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.SignOut()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MintGuestToken mints a one-time guest code for sharing.
func (h *Handler) MintGuestToken(c *gin.Context) {
	if c.GetString(middleware.CtxFirebaseUID) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	code, err := h.sessions.MintGuestToken(c.Request.Context())
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"code": code})
}

// respondAuthError surfaces the auth failure message verbatim; the session
// stays unauthenticated.
func respondAuthError(c *gin.Context, err error) {
	var authErr *identitydomain.AuthError
	if errors.As(err, &authErr) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
}

// identityFromCtx rebuilds the caller identity placed by the auth middleware.
func identityFromCtx(c *gin.Context) (*identitydomain.Identity, bool) {
	uid := c.GetString(middleware.CtxFirebaseUID)
	if uid == "" {
		return nil, false
	}
	return &identitydomain.Identity{
		UID:         uid,
		Email:       c.GetString(middleware.CtxEmail),
		DisplayName: c.GetString(middleware.CtxDisplayName),
		Anonymous:   c.GetBool(middleware.CtxAnonymous),
	}, true
}
