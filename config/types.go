package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so TOML files can use strings such as "10m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Auction captures the economics handed to the auction engine. Fractions are
// decimal strings ("0.005") converted to basis points.
type Auction struct {
	BondFraction       string   `toml:"BondFraction"`
	GraceWindow        Duration `toml:"GraceWindow"`
	ProtocolFee        string   `toml:"ProtocolFee"`
	FeeTreasury        string   `toml:"FeeTreasury"`
	RewardParticipants bool     `toml:"RewardParticipants"`
	AutoRefundOnSettle bool     `toml:"AutoRefundOnSettle"`
	MaxBatchSize       int      `toml:"MaxBatchSize"`
	MinDuration        Duration `toml:"MinDuration"`
	MaxDuration        Duration `toml:"MaxDuration"`
	SweepInterval      Duration `toml:"SweepInterval"`
}

// Auth controls caller identification on the HTTP API. With auth disabled the
// caller is read from the X-Caller header, which is only suitable for local
// development.
type Auth struct {
	Enabled       bool     `toml:"Enabled"`
	HMACSecretEnv string   `toml:"HMACSecretEnv"`
	Issuer        string   `toml:"Issuer"`
	Audience      string   `toml:"Audience"`
	MaxSkew       Duration `toml:"MaxSkew"`
}

type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Audit configures the durable event trail. An empty Driver disables it.
type Audit struct {
	Driver    string `toml:"Driver"`
	DSN       string `toml:"DSN"`
	ExportDir string `toml:"ExportDir"`
}

type Redis struct {
	Addr     string `toml:"Addr"`
	Password string `toml:"Password"`
	DB       int    `toml:"DB"`
	Channel  string `toml:"Channel"`
}

// Webhook delivers committed events to an HTTP endpoint. An empty URL
// disables it.
type Webhook struct {
	URL           string   `toml:"URL"`
	SecretEnv     string   `toml:"SecretEnv"`
	EventPrefixes []string `toml:"EventPrefixes"`
}

// Telemetry configures OTLP export. An empty Endpoint disables exporters.
type Telemetry struct {
	ServiceName     string   `toml:"ServiceName"`
	Environment     string   `toml:"Environment"`
	Endpoint        string   `toml:"Endpoint"`
	Insecure        bool     `toml:"Insecure"`
	MetricsInterval Duration `toml:"MetricsInterval"`
}

type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}
