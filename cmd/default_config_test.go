package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/sms-sim/sms-sim/sim"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile_TOML(t *testing.T) {
	// GIVEN a config in the [sms-simulation] table format
	path := writeConfig(t, "sim.toml", `
[sms-simulation]
messages = 250
refresh = 0.25
seed = 7
clock = "lockstep"

[[sms-simulation.senders]]
failure_rate = 0.2
mean_send_time = 0.05
sdev_send_time = 0.01

[[sms-simulation.senders]]
failure_rate = 0.0
mean_send_time = 0.1
sdev_send_time = 0.0
`)

	// WHEN it is loaded and applied over the defaults
	f, err := LoadConfigFile(path)
	require.NoError(t, err)
	cfg := f.Simulation.Apply(sim.DefaultSimulationConfig())

	// THEN set keys replace defaults and unset keys keep them
	assert.Equal(t, 250, cfg.TotalMessages)
	assert.Equal(t, 0.25, cfg.RefreshInterval)
	assert.Equal(t, []sim.SenderProfile{
		{FailureRate: 0.2, MeanSendTime: 0.05, SdevSendTime: 0.01},
		{FailureRate: 0, MeanSendTime: 0.1, SdevSendTime: 0},
	}, cfg.Senders)
	assert.Equal(t, 0, cfg.Parallelism)
	require.NotNil(t, f.Simulation.Seed)
	assert.Equal(t, int64(7), *f.Simulation.Seed)
	assert.Equal(t, "lockstep", f.Simulation.Clock)
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := writeConfig(t, "sim.yaml", `
sms-simulation:
  messages: 10
  parallelism: 16
  max_rate: 100
  senders:
    - failure_rate: 0.5
      mean_send_time: 0.2
      sdev_send_time: 0.05
`)
	f, err := LoadConfigFile(path)
	require.NoError(t, err)
	cfg := f.Simulation.Apply(sim.DefaultSimulationConfig())

	assert.Equal(t, 10, cfg.TotalMessages)
	assert.Equal(t, sim.DefaultRefreshInterval, cfg.RefreshInterval)
	assert.Equal(t, 16, cfg.Parallelism)
	assert.Equal(t, 100.0, cfg.MaxRate)
	assert.Len(t, cfg.Senders, 1)
}

func TestLoadConfigFile_RejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"toml typo", "a.toml", "[sms-simulation]\nmesages = 5\n"},
		{"toml sender typo", "b.toml", "[sms-simulation]\n[[sms-simulation.senders]]\nfailure = 0.1\n"},
		{"yaml typo", "c.yaml", "sms-simulation:\n  refesh: 1\n"},
		{"yaml unknown section", "d.yml", "simulation:\n  messages: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfig(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = LoadConfigFile(writeConfig(t, "sim.json", "{}"))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = LoadConfigFile(writeConfig(t, "bad.toml", "[sms-simulation\n"))
	assert.ErrorContains(t, err, "parsing TOML config")
}

func TestSimulationSection_Apply_EmptyKeepsDefaults(t *testing.T) {
	base := sim.DefaultSimulationConfig()
	assert.Equal(t, base, SimulationSection{}.Apply(base))
}
