package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Environment fallback keys, consulted when a tenant has no explicit entry.
const (
	EnvAPIKey            = "ADYEN_API_KEY"
	EnvMerchantAccount   = "ADYEN_MERCHANT_ACCOUNT"
	EnvReturnURL         = "ADYEN_RETURN_URL"
	EnvHMACKey           = "ADYEN_HMAC_KEY"
	EnvCaptureDelayHours = "ADYEN_CAPTURE_DELAY_HOURS"
)

// TenantGatewayConfig is the resolved gateway credential set for one tenant.
type TenantGatewayConfig struct {
	TenantID          string `yaml:"tenant_id"`
	APIKey            string `yaml:"api_key"`
	MerchantAccount   string `yaml:"merchant_account"`
	ReturnURL         string `yaml:"return_url"`
	HMACKey           string `yaml:"hmac_key"`
	CaptureDelayHours int    `yaml:"capture_delay_hours"`
}

// IsComplete reports whether the config can back gateway calls.
func (t *TenantGatewayConfig) IsComplete() bool {
	return t.APIKey != "" && t.MerchantAccount != ""
}

type tenantsFile struct {
	Tenants []TenantGatewayConfig `yaml:"tenants"`
}

// TenantResolver resolves per-tenant gateway configuration, falling back to
// environment variables for tenants with no explicit entry.
type TenantResolver struct {
	mu      sync.RWMutex
	tenants map[string]TenantGatewayConfig
}

// NewTenantResolver builds a resolver from an optional YAML tenants file.
// An empty path yields a resolver that always answers from the environment.
func NewTenantResolver(path string) (*TenantResolver, error) {
	r := &TenantResolver{tenants: make(map[string]TenantGatewayConfig)}
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenants file: %w", err)
	}
	var f tenantsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tenants file: %w", err)
	}
	for _, t := range f.Tenants {
		r.tenants[t.TenantID] = t
	}
	return r, nil
}

// Resolve returns the gateway configuration for a tenant. Fields missing
// from the tenant entry (or the whole entry) come from the environment.
func (r *TenantResolver) Resolve(tenantID string) TenantGatewayConfig {
	r.mu.RLock()
	cfg := r.tenants[tenantID]
	r.mu.RUnlock()

	cfg.TenantID = tenantID
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.MerchantAccount == "" {
		cfg.MerchantAccount = os.Getenv(EnvMerchantAccount)
	}
	if cfg.ReturnURL == "" {
		cfg.ReturnURL = os.Getenv(EnvReturnURL)
	}
	if cfg.HMACKey == "" {
		cfg.HMACKey = os.Getenv(EnvHMACKey)
	}
	if cfg.CaptureDelayHours == 0 {
		if v := os.Getenv(EnvCaptureDelayHours); v != "" {
			if hours, err := strconv.Atoi(v); err == nil {
				cfg.CaptureDelayHours = hours
			}
		}
	}
	return cfg
}

// Store registers or replaces a tenant entry at runtime.
func (r *TenantResolver) Store(cfg TenantGatewayConfig) {
	r.mu.Lock()
	r.tenants[cfg.TenantID] = cfg
	r.mu.Unlock()
}
