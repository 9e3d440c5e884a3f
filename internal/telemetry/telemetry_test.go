package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misicuan-admin/internal/logging"
)

func TestDisabledIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: false}, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestEnabledInstallsProvider(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, Config{
		Enabled:     true,
		ServiceName: "misicuan-admin-test",
		Environment: "test",
		Endpoint:    "127.0.0.1:4318",
		Insecure:    true,
	}, logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.NoError(t, p.Shutdown(ctx))
}
