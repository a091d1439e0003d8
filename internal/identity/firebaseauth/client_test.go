package firebaseauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SignInWithPassword(t *testing.T) {
	t.Run("parses a successful response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "dana@example.com", body["email"])
			assert.Equal(t, true, body["returnSecureToken"])

			json.NewEncoder(w).Encode(map[string]string{
				"localId":      "uid-1",
				"email":        "dana@example.com",
				"idToken":      "id-token",
				"refreshToken": "refresh-token",
				"expiresIn":    "3600",
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "test-key")
		creds, err := client.SignInWithPassword(context.Background(), "dana@example.com", "hunter2")
		require.NoError(t, err)

		assert.Equal(t, "uid-1", creds.UID)
		assert.Equal(t, "dana@example.com", creds.Email)
		assert.Equal(t, "id-token", creds.IDToken)
		assert.Equal(t, int64(3600), creds.ExpiresIn)
	})

	t.Run("surfaces the upstream error code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "EMAIL_NOT_FOUND"},
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "test-key")
		_, err := client.SignInWithPassword(context.Background(), "nobody@example.com", "x")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "EMAIL_NOT_FOUND", apiErr.Code)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestClient_SignInAnonymously(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signUp", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// Anonymous sign-in is a signUp call without credentials.
		assert.NotContains(t, body, "email")
		assert.NotContains(t, body, "password")

		json.NewEncoder(w).Encode(map[string]string{
			"localId":   "uid-anon",
			"idToken":   "id-token",
			"expiresIn": "3600",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	creds, err := client.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "uid-anon", creds.UID)
	assert.Empty(t, creds.Email)
}

func TestClient_SignInWithCustomToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithCustomToken", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "the-custom-token", body["token"])

		json.NewEncoder(w).Encode(map[string]string{
			"localId":   "uid-guest",
			"idToken":   "id-token",
			"expiresIn": "3600",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	creds, err := client.SignInWithCustomToken(context.Background(), "the-custom-token")
	require.NoError(t, err)
	assert.Equal(t, "uid-guest", creds.UID)
}
