package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbill/gateway-mediator/internal/config"
)

func writeTenantsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTenantResolver_FromFile(t *testing.T) {
	path := writeTenantsFile(t, `
tenants:
  - tenant_id: tenant-1
    api_key: key-1
    merchant_account: Merchant1
    return_url: https://one.example.com/return
    hmac_key: hmac-1
    capture_delay_hours: 24
  - tenant_id: tenant-2
    api_key: key-2
    merchant_account: Merchant2
`)

	resolver, err := config.NewTenantResolver(path)
	require.NoError(t, err)

	cfg := resolver.Resolve("tenant-1")
	assert.Equal(t, "key-1", cfg.APIKey)
	assert.Equal(t, "Merchant1", cfg.MerchantAccount)
	assert.Equal(t, "https://one.example.com/return", cfg.ReturnURL)
	assert.Equal(t, 24, cfg.CaptureDelayHours)
	assert.True(t, cfg.IsComplete())

	cfg2 := resolver.Resolve("tenant-2")
	assert.Equal(t, "key-2", cfg2.APIKey)
	assert.Empty(t, cfg2.ReturnURL)
}

func TestTenantResolver_EnvFallback(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "env-key")
	t.Setenv(config.EnvMerchantAccount, "EnvMerchant")
	t.Setenv(config.EnvReturnURL, "https://env.example.com/return")
	t.Setenv(config.EnvCaptureDelayHours, "12")

	resolver, err := config.NewTenantResolver("")
	require.NoError(t, err)

	cfg := resolver.Resolve("unknown-tenant")
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "EnvMerchant", cfg.MerchantAccount)
	assert.Equal(t, "https://env.example.com/return", cfg.ReturnURL)
	assert.Equal(t, 12, cfg.CaptureDelayHours)
	assert.True(t, cfg.IsComplete())
}

func TestTenantResolver_PartialEntryFillsFromEnv(t *testing.T) {
	t.Setenv(config.EnvReturnURL, "https://env.example.com/return")

	path := writeTenantsFile(t, `
tenants:
  - tenant_id: tenant-1
    api_key: key-1
    merchant_account: Merchant1
`)
	resolver, err := config.NewTenantResolver(path)
	require.NoError(t, err)

	cfg := resolver.Resolve("tenant-1")
	assert.Equal(t, "key-1", cfg.APIKey)
	assert.Equal(t, "https://env.example.com/return", cfg.ReturnURL)
}

func TestTenantResolver_Store(t *testing.T) {
	resolver, err := config.NewTenantResolver("")
	require.NoError(t, err)

	resolver.Store(config.TenantGatewayConfig{
		TenantID:        "tenant-9",
		APIKey:          "key-9",
		MerchantAccount: "Merchant9",
	})

	cfg := resolver.Resolve("tenant-9")
	assert.Equal(t, "key-9", cfg.APIKey)
}

func TestTenantResolver_MissingFile(t *testing.T) {
	_, err := config.NewTenantResolver("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestTenantResolver_InvalidYAML(t *testing.T) {
	path := writeTenantsFile(t, "tenants: [not: closed")
	_, err := config.NewTenantResolver(path)
	assert.Error(t, err)
}

func TestTenantGatewayConfig_IsComplete(t *testing.T) {
	assert.False(t, (&config.TenantGatewayConfig{}).IsComplete())
	assert.False(t, (&config.TenantGatewayConfig{APIKey: "k"}).IsComplete())
	assert.True(t, (&config.TenantGatewayConfig{APIKey: "k", MerchantAccount: "m"}).IsComplete())
}
