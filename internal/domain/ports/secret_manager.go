package ports

import (
	"context"
)

// Secret represents a retrieved secret value with metadata
type Secret struct {
	Value     string
	Version   string
	Metadata  map[string]string
	CreatedAt string
}

// SecretManager retrieves at-rest secrets (API credentials, signing keys,
// database passwords) from a backing store. Implementations exist for the
// environment (development), AWS Secrets Manager, and HashiCorp Vault.
type SecretManager interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
