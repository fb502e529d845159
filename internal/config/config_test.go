package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        tt.env,
				DBSSLMode:  tt.sslMode,
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "secure-password",
				Port:       "8080",
			}

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecret(t *testing.T) {
	c := &Config{
		Env:        "production",
		JWTSecret:  defaultJWTSecret,
		DBPassword: "secure-password",
		DBSSLMode:  "require",
		Port:       "8080",
	}
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c.JWTSecret = "a-very-long-production-secret-value-123"
	assert.NoError(t, c.Validate())
}

func TestConfig_TokenTTLDefaults(t *testing.T) {
	c := &Config{}
	assert.Equal(t, time.Hour, c.LoginTTL())
	assert.Equal(t, 7*24*time.Hour, c.RegistrationTTL())

	c.LoginTokenTTL = 15 * time.Minute
	assert.Equal(t, 15*time.Minute, c.LoginTTL())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("LOGIN_TOKEN_TTL", "30m")
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, 30*time.Minute, cfg.LoginTTL())
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "mutualaid-api", cfg.JWTIssuer)
}
