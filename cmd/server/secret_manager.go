package main

import (
	"context"
	"fmt"
	"time"

	"github.com/clearbill/gateway-mediator/internal/adapters/secrets"
	"github.com/clearbill/gateway-mediator/internal/config"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
)

// dbPasswordSecretPath is the well-known secret path for the database
// password when a remote secret backend is active.
const dbPasswordSecretPath = "gateway-mediator/db-password"

// initSecretManager selects the secret backend from configuration.
// Supports:
//   - env (development): secrets resolved from environment variables
//   - aws: AWS Secrets Manager, credentials from the default chain
//   - vault: HashiCorp Vault with token auth
func initSecretManager(ctx context.Context, cfg *config.Config, logger ports.Logger) (ports.SecretManager, error) {
	switch cfg.Secrets.Provider {
	case "aws":
		return secrets.NewAWSSecretsManagerAdapter(ctx,
			secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion), logger)
	case "vault":
		return secrets.NewVaultAdapter(
			secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress, cfg.Secrets.VaultToken), logger)
	case "env":
		return secrets.NewEnvSecretManager(logger), nil
	default:
		return nil, fmt.Errorf("unknown secrets provider: %s", cfg.Secrets.Provider)
	}
}

// resolveDatabasePassword fills the database password from the secret
// backend when it was not provided directly.
func resolveDatabasePassword(cfg *config.Config, logger ports.Logger) error {
	if cfg.Database.Password != "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sm, err := initSecretManager(ctx, cfg, logger)
	if err != nil {
		return err
	}

	secret, err := sm.GetSecret(ctx, dbPasswordSecretPath)
	if err != nil {
		return fmt.Errorf("resolve database password: %w", err)
	}
	cfg.Database.Password = secret.Value

	logger.Info("database password resolved from secret backend",
		ports.String("provider", cfg.Secrets.Provider))
	return nil
}
