// Package config reads run configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds environment-provided defaults for the forcing CLI. Command
// line flags take precedence over all of these.
type Config struct {
	SSTDir     string // SSTPREP_SST_DIR
	OutputPath string // SSTPREP_OUTPUT
	PoolSize   int    // SSTPREP_POOL_SIZE, 0 = all CPUs
}

type ErrInvalidEnvVar struct {
	Name  string
	Value string
}

func (e *ErrInvalidEnvVar) Error() string {
	return fmt.Sprintf("environment variable %q has invalid value %q", e.Name, e.Value)
}

// Load reads configuration from environment variables. Unset variables fall
// back to zero values; the CLI decides what is ultimately required.
func Load() (*Config, error) {
	config := Config{}
	config.SSTDir = os.Getenv("SSTPREP_SST_DIR")
	config.OutputPath = os.Getenv("SSTPREP_OUTPUT")

	if v := os.Getenv("SSTPREP_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &ErrInvalidEnvVar{Name: "SSTPREP_POOL_SIZE", Value: v}
		}
		config.PoolSize = n
	}

	return &config, nil
}
