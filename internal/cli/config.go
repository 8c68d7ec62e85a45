package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/mcoot/placeledger/internal/ledger"
)

// Environment variables read by DefaultConfig
const (
	envLedgerURL = "PLACECTL_LEDGER_URL"
	envTimeout   = "PLACECTL_TIMEOUT"
	envOutput    = "PLACECTL_OUTPUT"
)

// Config holds CLI configuration
type Config struct {
	LedgerURL string
	Timeout   time.Duration
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with values from the environment or the defaults
func DefaultConfig() *Config {
	defaults := ledger.DefaultConfig()

	return &Config{
		LedgerURL: getEnvOrDefault(envLedgerURL, defaults.BaseURL),
		Timeout:   getDurationOrDefault(envTimeout, defaults.Timeout),
		Output:    getEnvOrDefault(envOutput, "text"),
		Verbose:   false,
	}
}

// Validate checks flag values that cobra cannot
func (c *Config) Validate() error {
	if c.Output != "text" && c.Output != "json" {
		return fmt.Errorf("invalid output format %q: must be text or json", c.Output)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", c.Timeout)
	}
	return nil
}

// LedgerConfig returns the ledger client settings
func (c *Config) LedgerConfig() ledger.Config {
	return ledger.Config{
		BaseURL: c.LedgerURL,
		Timeout: c.Timeout,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
