package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hackathons_test")
	t.Setenv("JWT_SECRET_KEY", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 60*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 300*time.Second, cfg.LoginCodeTTL)
	assert.Equal(t, 6, cfg.LoginCodeLength)
	assert.Equal(t, 6, cfg.TeamPasswordLength)
	assert.Empty(t, cfg.BotAPIKey)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5175"}, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("AUTH_CODE_EXPIRE", "120")
	t.Setenv("AUTH_CODE_LENGTH", "8")
	t.Setenv("TEAM_PASSWORD_LENGTH", "10")
	t.Setenv("BOT_API_KEY", "bot-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://hack.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 2*time.Minute, cfg.LoginCodeTTL)
	assert.Equal(t, 8, cfg.LoginCodeLength)
	assert.Equal(t, 10, cfg.TeamPasswordLength)
	assert.Equal(t, "bot-secret", cfg.BotAPIKey)
	assert.Equal(t, []string{"https://hack.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET_KEY", "test-secret")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/hackathons_test")
		t.Setenv("JWT_SECRET_KEY", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("code length out of range", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("AUTH_CODE_LENGTH", "2")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("team password length out of range", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("TEAM_PASSWORD_LENGTH", "64")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SERVER_PORT", "notaport")
		_, err := Load()
		assert.Error(t, err)
	})
}
