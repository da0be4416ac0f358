package secrets_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearbill/gateway-mediator/internal/adapters/secrets"
	"github.com/clearbill/gateway-mediator/pkg/logging"
)

func TestEnvSecretManager_GetSecret(t *testing.T) {
	t.Setenv("GATEWAY_MEDIATOR_DB_PASSWORD", "hunter2")

	sm := secrets.NewEnvSecretManager(logging.NewZapLogger(zap.NewNop()))

	secret, err := sm.GetSecret(context.Background(), "gateway-mediator/db-password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret.Value)
}

func TestEnvSecretManager_NotFound(t *testing.T) {
	sm := secrets.NewEnvSecretManager(logging.NewZapLogger(zap.NewNop()))

	_, err := sm.GetSecret(context.Background(), "never/set/anywhere")
	assert.Error(t, err)
}
