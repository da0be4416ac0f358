package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbill/gateway-mediator/internal/config"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "gateway_mediator", cfg.Database.Database)
	assert.Equal(t, "https://checkout-test.adyen.com/v69", cfg.Gateway.BaseURL)
	assert.Equal(t, 30, cfg.Gateway.Timeout)
	assert.Equal(t, "env", cfg.Secrets.Provider)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("GATEWAY_BASE_URL", "https://checkout-live.example.com/v69")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "https://checkout-live.example.com/v69", cfg.Gateway.BaseURL)
	assert.True(t, cfg.Logger.Development)
}

func TestLoadFromEnv_MissingPasswordWithEnvProvider(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("SECRETS_PROVIDER", "env")

	_, err := config.LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadFromEnv_MissingPasswordWithRemoteProvider(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("SECRETS_PROVIDER", "aws")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "aws", cfg.Secrets.Provider)
}

func TestConnectionString(t *testing.T) {
	db := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		Database: "gateway_mediator",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=pw dbname=gateway_mediator sslmode=disable",
		db.ConnectionString())
}
