package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	assert := assert.New(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(cfg.Optimize)
	assert.Equal("qsim", cfg.SimBackend)
	assert.Equal(1_000_000, cfg.SimMaxSteps)
	assert.Equal(int64(0), cfg.SimSeed)
	assert.Equal(1, cfg.SimShots)
	assert.Equal(1, cfg.Workers)
	assert.Equal(":8080", cfg.ServerAddr)
	assert.False(cfg.LogDebug)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("QCL_OPTIMIZE", "false")
	t.Setenv("QCL_SIM_BACKEND", "itsubaki")
	t.Setenv("QCL_SERVER_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(cfg.Optimize)
	assert.Equal("itsubaki", cfg.SimBackend)
	assert.Equal(":9090", cfg.ServerAddr)
}
