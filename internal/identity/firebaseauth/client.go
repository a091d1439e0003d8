// Package firebaseauth wraps the Firebase Identity Toolkit REST API.
//
// The Admin SDK deliberately has no password, anonymous, or custom-token
// sign-in (those are client-side operations), so the session manager talks to
// the same REST surface a browser SDK would.
package firebaseauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client calls the Identity Toolkit accounts endpoints with a web API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Identity Toolkit client. baseURL normally points at
// https://identitytoolkit.googleapis.com/v1 and is overridable for the auth
// emulator and tests.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Credentials is the token bundle returned by every sign-in variant.
type Credentials struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresIn    int64
}

// APIError is a non-2xx response from the Identity Toolkit. Code carries the
// upstream error constant (EMAIL_NOT_FOUND, INVALID_PASSWORD, ...).
type APIError struct {
	StatusCode int
	Code       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity toolkit: %s (status %d)", e.Code, e.StatusCode)
}

// SignInWithPassword exchanges email/password credentials for tokens.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Credentials, error) {
	return c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignUp creates a new email/password account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	return c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignInAnonymously creates a fresh anonymous identity. The Identity Toolkit
// models this as a signUp call without credentials.
func (c *Client) SignInAnonymously(ctx context.Context) (*Credentials, error) {
	return c.post(ctx, "accounts:signUp", map[string]any{
		"returnSecureToken": true,
	})
}

// SignInWithCustomToken redeems an Admin-minted custom token for tokens.
func (c *Client) SignInWithCustomToken(ctx context.Context, token string) (*Credentials, error) {
	return c.post(ctx, "accounts:signInWithCustomToken", map[string]any{
		"token":             token,
		"returnSecureToken": true,
	})
}

func (c *Client) post(ctx context.Context, endpoint string, body map[string]any) (*Credentials, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqURL := c.baseURL + "/" + endpoint + "?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		code := "UNKNOWN"
		if json.Unmarshal(data, &errBody) == nil && errBody.Error.Message != "" {
			code = errBody.Error.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Code: code}
	}

	var parsed struct {
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	expires, _ := strconv.ParseInt(parsed.ExpiresIn, 10, 64)

	return &Credentials{
		UID:          parsed.LocalID,
		Email:        parsed.Email,
		IDToken:      parsed.IDToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresIn:    expires,
	}, nil
}
