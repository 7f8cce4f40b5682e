package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddress string   `toml:"ListenAddress"`
	DataDir       string   `toml:"DataDir"`
	GenesisFile   string   `toml:"GenesisFile"`
	PausedModules []string `toml:"PausedModules"`

	Auction   Auction   `toml:"auction"`
	Auth      Auth      `toml:"auth"`
	RateLimit RateLimit `toml:"rate_limit"`
	Audit     Audit     `toml:"audit"`
	Redis     Redis     `toml:"redis"`
	Webhook   Webhook   `toml:"webhook"`
	Telemetry Telemetry `toml:"telemetry"`
	Logging   Logging   `toml:"logging"`
}

// Defaults returns the configuration used for a fresh installation.
func Defaults() *Config {
	return &Config{
		ListenAddress: ":8080",
		DataDir:       "./auction-data",
		PausedModules: []string{},
		Auction: Auction{
			BondFraction:       "0.005",
			GraceWindow:        Duration{10 * time.Minute},
			ProtocolFee:        "0",
			RewardParticipants: true,
			MaxBatchSize:       50,
			MinDuration:        Duration{time.Minute},
			MaxDuration:        Duration{30 * 24 * time.Hour},
			SweepInterval:      Duration{15 * time.Second},
		},
		Auth: Auth{
			HMACSecretEnv: "AUCTION_JWT_SECRET",
			Issuer:        "domaauction",
			MaxSkew:       Duration{time.Minute},
		},
		RateLimit: RateLimit{RequestsPerSecond: 20, Burst: 40},
		Audit:     Audit{Driver: "sqlite", DSN: "audit.db"},
		Redis:     Redis{Channel: "auction.events"},
		Webhook:   Webhook{SecretEnv: "AUCTION_WEBHOOK_SECRET", EventPrefixes: []string{"auction.lot."}},
		Telemetry: Telemetry{
			ServiceName:     "auctiond",
			Environment:     "dev",
			MetricsInterval: Duration{15 * time.Second},
		},
		Logging: Logging{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
	}
}

// Load loads the configuration from the given path. A missing file is created
// with the defaults. A .env file next to the configuration is loaded before
// AUCTION_* environment overrides are applied; variables already present in
// the environment win over the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := persist(path, cfg); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// DatabasePath returns the goleveldb directory under DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "state")
}
