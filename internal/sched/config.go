// internal/sched/config.go

package sched

import (
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors config.yml: the boot-time knobs for the tick source,
// the process table, and the initial scheduling policy.
type Config struct {
	TickMS       int     `yaml:"tick_ms"`       // 5 (by default)
	NPROC        int     `yaml:"nproc"`         // 64 (by default)
	Algorithm    int     `yaml:"algorithm"`     // 0 = SJF, 1 = CFS
	IsPreemptive bool    `yaml:"is_preemptive"` // only effective under SJF
	Alpha        float64 `yaml:"alpha"`         // smoothing coefficient 'a', percent
	CPUs         int     `yaml:"cpus"`          // number of per-CPU scheduler loops
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		TickMS:       5,
		NPROC:        64,
		Algorithm:    int(SJF),
		IsPreemptive: false,
		Alpha:        50,
		CPUs:         2,
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	// sanity clamps
	if cfg.TickMS <= 0 {
		cfg.TickMS = 5
	}
	if cfg.NPROC <= 0 {
		cfg.NPROC = 64
	}
	if cfg.Algorithm != int(SJF) && cfg.Algorithm != int(CFS) {
		cfg.Algorithm = int(SJF)
	}
	if cfg.Alpha < 0 || cfg.Alpha > 100 {
		cfg.Alpha = 50
	}
	if cfg.CPUs <= 0 {
		cfg.CPUs = 2
	}

	return cfg
}
