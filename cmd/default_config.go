package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	sim "github.com/sms-sim/sms-sim/sim"
)

// SimulationSection is the [sms-simulation] table of a config file.
// Unset keys keep the built-in defaults.
type SimulationSection struct {
	Messages    *int                `yaml:"messages" toml:"messages"`
	Refresh     *float64            `yaml:"refresh" toml:"refresh"`
	Senders     []sim.SenderProfile `yaml:"senders" toml:"senders"`
	Parallelism *int                `yaml:"parallelism" toml:"parallelism"`
	MaxRate     *float64            `yaml:"max_rate" toml:"max_rate"`
	Seed        *int64              `yaml:"seed" toml:"seed"`
	Clock       string              `yaml:"clock" toml:"clock"`
}

// ConfigFile represents the full config file structure.
// All top-level sections must be listed to satisfy strict parsing.
type ConfigFile struct {
	Simulation SimulationSection `yaml:"sms-simulation" toml:"sms-simulation"`
}

// LoadConfigFile parses a .toml, .yaml or .yml config file. Unknown keys are
// rejected in both formats so that typos surface as errors.
func LoadConfigFile(path string) (ConfigFile, error) {
	var cfg ConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing TOML config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return cfg, fmt.Errorf("parsing TOML config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parsing YAML config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config file extension %q (want .toml, .yaml or .yml)", ext)
	}
	return cfg, nil
}

// Apply overlays the keys set in the file onto base.
func (s SimulationSection) Apply(base sim.SimulationConfig) sim.SimulationConfig {
	if s.Messages != nil {
		base.TotalMessages = *s.Messages
	}
	if s.Refresh != nil {
		base.RefreshInterval = *s.Refresh
	}
	if s.Senders != nil {
		base.Senders = append([]sim.SenderProfile(nil), s.Senders...)
	}
	if s.Parallelism != nil {
		base.Parallelism = *s.Parallelism
	}
	if s.MaxRate != nil {
		base.MaxRate = *s.MaxRate
	}
	return base
}
