// Package config holds the runtime configuration keys,
// loadable from a YAML file (via gopkg.in/yaml.v3) and overridable
// by CLI flags.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	PrimaryThreads       int     `yaml:"primary_threads"`
	BlockingThreads      int     `yaml:"blocking_threads"`
	GCThreads            int     `yaml:"gc_threads"`
	TracerThreads        int     `yaml:"tracer_threads"`
	Reductions           int     `yaml:"reductions"`
	YoungThreshold       int     `yaml:"young_threshold"`
	MatureThreshold      int     `yaml:"mature_threshold"`
	HeapGrowthThreshold  float64 `yaml:"heap_growth_threshold"`
	HeapGrowthFactor     float64 `yaml:"heap_growth_factor"`
	PrintGCTimings       bool    `yaml:"print_gc_timings"`

	MailboxGCThreshold int `yaml:"mailbox_gc_threshold"`
}

// MailboxThreshold returns the mailbox size past which the scheduler's
// safepoint forces a collection, defaulting when unset.
func (c Config) MailboxThreshold() int {
	if c.MailboxGCThreshold > 0 {
		return c.MailboxGCThreshold
	}
	return 1024
}

// Default matches the reference runtime's out-of-the-box tuning: a
// fixed four primary workers (the CPU count is not consulted), a modest
// blocking pool, and conservative GC thresholds.
func Default() Config {
	return Config{
		PrimaryThreads:      4,
		BlockingThreads:     4,
		GCThreads:           4,
		TracerThreads:       4,
		Reductions:          1000,
		YoungThreshold:      8 * 1024 * 1024,
		MatureThreshold:     16 * 1024 * 1024,
		HeapGrowthThreshold: 0.9,
		HeapGrowthFactor:    1.5,
		PrintGCTimings:      false,
	}
}

// Load reads a YAML config file, applying its keys over Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
