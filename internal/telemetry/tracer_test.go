package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/reelgraph/internal/config"
)

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.Nil(t, tp)
	assert.NoError(t, Shutdown(context.Background(), tp))
}
