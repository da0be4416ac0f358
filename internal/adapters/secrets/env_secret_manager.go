package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/clearbill/gateway-mediator/internal/domain/ports"
)

// envSecretManager resolves secrets from environment variables. Intended for
// development and container setups that inject secrets through the
// environment; production deployments use the AWS or Vault backend.
type envSecretManager struct {
	logger ports.Logger
}

// NewEnvSecretManager creates a secret manager backed by the process
// environment. A path like "gateway/api-key" maps to GATEWAY_API_KEY.
func NewEnvSecretManager(logger ports.Logger) ports.SecretManager {
	return &envSecretManager{logger: logger}
}

func (m *envSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	key := envKeyForPath(path)
	value := os.Getenv(key)
	if value == "" {
		return nil, fmt.Errorf("secret not found in environment: %s", key)
	}
	m.logger.Debug("secret resolved from environment", ports.String("key", key))
	return &ports.Secret{Value: value, Version: "env"}, nil
}

func envKeyForPath(path string) string {
	key := strings.ToUpper(path)
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}
