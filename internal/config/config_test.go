package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: "9090"
database:
  driver: sqlite
  path: ":memory:"
engine:
  super_admin: "0x0000000000000000000000000000000000000001"
  escrow_address: "0x00000000000000000000000000000000000000e5"
  safe_address: "0x000000000000000000000000000000000000005a"
  minimum_contribution: 500
  farmer_workflow: whitelist
  release_requires_deadline: true
task:
  workers: 2
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, uint64(500), cfg.Engine.MinimumContribution)
	assert.Equal(t, uint32(365), cfg.Engine.MaximumDurationDays)
	assert.Equal(t, TokenMemory, cfg.Engine.Token)
	assert.Equal(t, 2, cfg.Task.Workers)
	assert.Equal(t, 100, cfg.Task.BatchSize)
	assert.Equal(t, 5, cfg.Task.Snapshots)
	assert.Equal(t, "debug", cfg.Log.GetLevel())
	assert.Equal(t, "stdout", cfg.Log.GetOutput())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	escrow := common.HexToAddress(cfg.Engine.EscrowAddress)
	settings := cfg.Engine.Settings(escrow)
	assert.Equal(t, escrow, settings.EscrowAddress)
	assert.Equal(t, common.HexToAddress("0x5a"), settings.SafeAddress)
	assert.False(t, settings.RequireApplication)
	assert.True(t, settings.ReleaseRequiresDeadline)
	assert.NoError(t, settings.Validate())

	assert.Equal(t, common.HexToAddress("0x1"), cfg.OperatorAddress())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ROOTRISE_ENGINE_MINIMUM_CONTRIBUTION", "42")
	t.Setenv("ROOTRISE_SERVER_PORT", "7070")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Engine.MinimumContribution)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing super admin", func(c *Config) { c.Engine.SuperAdmin = "" }},
		{"malformed safe address", func(c *Config) { c.Engine.SafeAddress = "0x1234" }},
		{"unknown workflow", func(c *Config) { c.Engine.FarmerWorkflow = "lottery" }},
		{"unknown token", func(c *Config) { c.Engine.Token = "iou" }},
		{"memory token without escrow", func(c *Config) { c.Engine.EscrowAddress = "" }},
		{"erc20 without rpc", func(c *Config) { c.Engine.Token = TokenERC20 }},
		{"zero minimum", func(c *Config) { c.Engine.MinimumContribution = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"zero workers", func(c *Config) { c.Task.Workers = 0 }},
	}

	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, sampleConfig))
		require.NoError(t, err)
		tt.mutate(cfg)
		assert.Error(t, cfg.Validate(), tt.name)
	}
}
