package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"auctionhouse/core/state"
	"auctionhouse/crypto"
	"auctionhouse/storage"
)

const defaultKeypairName = "operator.json"

// Config is the operator configuration for a local auction house ledger.
type Config struct {
	DataDir     string    `toml:"DataDir" yaml:"dataDir"`
	Backend     string    `toml:"Backend" yaml:"backend"`
	ProgramID   string    `toml:"ProgramID" yaml:"programId"`
	KeypairPath string    `toml:"KeypairPath" yaml:"keypairPath"`
	Rent        Rent      `toml:"Rent" yaml:"rent"`
	Log         Log       `toml:"Log" yaml:"log"`
	Metrics     Metrics   `toml:"Metrics" yaml:"metrics"`
	Telemetry   Telemetry `toml:"Telemetry" yaml:"telemetry"`
}

// Default returns the configuration written for a fresh install.
func Default() *Config {
	rent := state.DefaultRent()
	return &Config{
		DataDir:   "./ah-data",
		Backend:   BackendLevelDB,
		ProgramID: "",
		Rent: Rent{
			LamportsPerByteYear: rent.LamportsPerByteYear,
			ExemptionYears:      rent.ExemptionYears,
		},
		Log:     Log{Env: "local", Level: "info", Format: "json"},
		Metrics: Metrics{ListenAddress: ":9464"},
		Telemetry: Telemetry{
			Endpoint:    "localhost:4318",
			SampleRatio: 1,
		},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the configuration at path. A missing file is created with
// defaults and a freshly generated operator keypair next to it. Files ending
// in .yaml or .yml are read as YAML, everything else as TOML.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	if isYAML(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: unknown key %s in %s", undecoded[0], path)
		}
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.KeypairPath == "" {
		if err := ensureKeypair(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ensureKeypair(configPath string, cfg *Config) error {
	keyPath := defaultKeypairPath(configPath)
	if _, err := os.Stat(keyPath); errors.Is(err, os.ErrNotExist) {
		key, err := crypto.GenerateKeypair()
		if err != nil {
			return err
		}
		if err := crypto.SaveKeypair(keyPath, key); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	cfg.KeypairPath = keyPath
	return persist(configPath, cfg)
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := ensureKeypair(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeypairPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), defaultKeypairName)
}

// Program returns the configured program address, or def when unset.
func (c *Config) Program(def solana.PublicKey) (solana.PublicKey, error) {
	if strings.TrimSpace(c.ProgramID) == "" {
		return def, nil
	}
	return solana.PublicKeyFromBase58(strings.TrimSpace(c.ProgramID))
}

// RentParams converts the rent section for the ledger.
func (c *Config) RentParams() state.Rent {
	return state.Rent{
		LamportsPerByteYear: c.Rent.LamportsPerByteYear,
		ExemptionYears:      c.Rent.ExemptionYears,
	}
}

// OpenDatabase opens the configured storage backend under DataDir.
func (c *Config) OpenDatabase() (storage.Database, error) {
	switch c.Backend {
	case BackendMemory:
		return storage.NewMemDB(), nil
	case BackendLevelDB:
		return storage.NewLevelDB(filepath.Join(c.DataDir, "ledger"))
	case BackendBolt:
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(c.DataDir, "ledger.bolt"))
	}
	return nil, fmt.Errorf("config: unknown backend %q", c.Backend)
}
