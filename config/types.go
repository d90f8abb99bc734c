package config

// Storage backends accepted by Config.Backend.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

// Rent overrides the rent-exemption parameters of the ledger.
type Rent struct {
	LamportsPerByteYear uint64 `toml:"LamportsPerByteYear" yaml:"lamportsPerByteYear"`
	ExemptionYears      uint64 `toml:"ExemptionYears" yaml:"exemptionYears"`
}

// Log controls the process logger.
type Log struct {
	Env    string `toml:"Env" yaml:"env"`
	Level  string `toml:"Level" yaml:"level"`
	Format string `toml:"Format" yaml:"format"`
}

// Metrics exposes the Prometheus registry over HTTP when enabled.
type Metrics struct {
	Enabled       bool   `toml:"Enabled" yaml:"enabled"`
	ListenAddress string `toml:"ListenAddress" yaml:"listenAddress"`
}

// Telemetry configures OTLP trace export.
type Telemetry struct {
	Enabled     bool    `toml:"Enabled" yaml:"enabled"`
	Endpoint    string  `toml:"Endpoint" yaml:"endpoint"`
	Insecure    bool    `toml:"Insecure" yaml:"insecure"`
	Headers     string  `toml:"Headers" yaml:"headers"`
	SampleRatio float64 `toml:"SampleRatio" yaml:"sampleRatio"`
}
