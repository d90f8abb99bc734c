package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/observability/logging"
)

// Validate rejects configurations the ledger cannot run with.
func Validate(c *Config) error {
	switch c.Backend {
	case BackendMemory, BackendLevelDB, BackendBolt:
	default:
		return fmt.Errorf("backend: unknown %q", c.Backend)
	}
	if c.Backend != BackendMemory && strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir: required for %s backend", c.Backend)
	}
	if id := strings.TrimSpace(c.ProgramID); id != "" {
		if _, err := solana.PublicKeyFromBase58(id); err != nil {
			return fmt.Errorf("program_id: %w", err)
		}
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionYears == 0 {
		return fmt.Errorf("rent: lamports_per_byte_year and exemption_years must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.ListenAddress) == "" {
		return fmt.Errorf("metrics: listen_address required when enabled")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: sample_ratio must be within [0, 1]")
	}
	return nil
}
