package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("FIREBASE_CREDENTIALS_PATH", "/tmp/creds.json")
		t.Setenv("FIREBASE_WEB_API_KEY", "test-key")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, "https://identitytoolkit.googleapis.com/v1", cfg.Firebase.AuthEndpoint)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, 15*time.Minute, cfg.Guest.TokenTTL)
		assert.Equal(t, "0 */5 * * * *", cfg.Leaderboard.CronSpec)
		assert.Equal(t, 10, cfg.Leaderboard.Size)
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("FIREBASE_CREDENTIALS_PATH", "/tmp/creds.json")
		t.Setenv("FIREBASE_WEB_API_KEY", "test-key")
		t.Setenv("PORT", "9090")
		t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
		t.Setenv("GUEST_TOKEN_TTL", "1h")
		t.Setenv("LEADERBOARD_SIZE", "25")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, time.Hour, cfg.Guest.TokenTTL)
		assert.Equal(t, 25, cfg.Leaderboard.Size)
	})

	t.Run("invalid numeric values fall back to defaults", func(t *testing.T) {
		t.Setenv("FIREBASE_CREDENTIALS_PATH", "/tmp/creds.json")
		t.Setenv("FIREBASE_WEB_API_KEY", "test-key")
		t.Setenv("LEADERBOARD_SIZE", "lots")
		t.Setenv("GUEST_TOKEN_TTL", "soon")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 10, cfg.Leaderboard.Size)
		assert.Equal(t, 15*time.Minute, cfg.Guest.TokenTTL)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Firebase: FirebaseConfig{CredentialsPath: "/tmp/creds.json", WebAPIKey: "test-key"},
		}
	}

	t.Run("passes with required fields set", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("requires credentials path", func(t *testing.T) {
		cfg := base()
		cfg.Firebase.CredentialsPath = ""
		assert.ErrorContains(t, cfg.Validate(), "FIREBASE_CREDENTIALS_PATH")
	})

	t.Run("requires web API key", func(t *testing.T) {
		cfg := base()
		cfg.Firebase.WebAPIKey = ""
		assert.ErrorContains(t, cfg.Validate(), "FIREBASE_WEB_API_KEY")
	})
}
