package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, ":8080", cfg.ListenAddress)

	params, err := cfg.AuctionParams()
	require.NoError(t, err)
	require.Equal(t, uint32(50), params.BondBps)
	require.Equal(t, int64(600), params.GraceWindow)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Auction, reloaded.Auction)
}

func TestLoadParsesAuctionSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `ListenAddress = "127.0.0.1:9000"
DataDir = "./data"
GenesisFile = "genesis.yaml"
PausedModules = ["loyalty"]

[auction]
BondFraction = "0.01"
GraceWindow = "2m"
ProtocolFee = "0.025"
FeeTreasury = "0x00000000000000000000000000000000000000fe"
RewardParticipants = false
AutoRefundOnSettle = true
MaxBatchSize = 10
MinDuration = "5m"
MaxDuration = "48h"
SweepInterval = "30s"

[audit]
Driver = "postgres"
DSN = "postgres://audit@localhost/audit"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "genesis.yaml", cfg.GenesisFile)
	require.Equal(t, 30*time.Second, cfg.Auction.SweepInterval.Duration)
	require.True(t, cfg.Pauses().IsPaused("loyalty"))
	require.False(t, cfg.Pauses().IsPaused("auction"))

	params, err := cfg.AuctionParams()
	require.NoError(t, err)
	require.Equal(t, uint32(100), params.BondBps)
	require.Equal(t, uint32(250), params.ProtocolFeeBps)
	require.Equal(t, byte(0xfe), params.FeeTreasury[19])
	require.Equal(t, int64(120), params.GraceWindow)
	require.False(t, params.RewardParticipants)
	require.True(t, params.AutoRefundOnSettle)
	require.Equal(t, 10, params.MaxBatchSize)
	require.Equal(t, int64(300), params.MinDuration)
	require.Equal(t, int64(48*3600), params.MaxDuration)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`ListenAddress = ":1"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUCTION_REDIS_ADDR=redis:6379\nAUCTION_BOND_FRACTION=0.9\n"), 0o600))

	t.Cleanup(func() { os.Unsetenv("AUCTION_REDIS_ADDR") })
	t.Setenv("AUCTION_LISTEN_ADDRESS", ":7070")
	t.Setenv("AUCTION_GRACE_WINDOW", "90s")
	t.Setenv("AUCTION_PAUSED_MODULES", "auction, registry")
	t.Setenv("AUCTION_BOND_FRACTION", "0.02")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.ListenAddress)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
	require.Equal(t, "0.02", cfg.Auction.BondFraction, "process environment wins over .env")
	require.Equal(t, []string{"auction", "registry"}, cfg.PausedModules)

	params, err := cfg.AuctionParams()
	require.NoError(t, err)
	require.Equal(t, int64(90), params.GraceWindow)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"fraction above one":    func(c *Config) { c.Auction.BondFraction = "1.5" },
		"sub basis point":       func(c *Config) { c.Auction.BondFraction = "0.00001" },
		"fee without treasury":  func(c *Config) { c.Auction.ProtocolFee = "0.01" },
		"bad treasury":          func(c *Config) { c.Auction.FeeTreasury = "nope" },
		"unknown paused module": func(c *Config) { c.PausedModules = []string{"lending"} },
		"unknown audit driver":  func(c *Config) { c.Audit.Driver = "mysql" },
		"duration bounds":       func(c *Config) { c.Auction.MaxDuration = Duration{time.Second} },
		"auth without secret":   func(c *Config) { c.Auth.Enabled = true; c.Auth.HMACSecretEnv = "" },
		"webhook without secret": func(c *Config) {
			c.Webhook.URL = "https://hooks.example/auction"
			c.Webhook.SecretEnv = ""
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, Defaults().Validate())
}

func TestJWTSecretFromEnv(t *testing.T) {
	cfg := Defaults()
	t.Setenv(cfg.Auth.HMACSecretEnv, "")
	_, err := cfg.JWTSecret()
	require.Error(t, err)

	t.Setenv(cfg.Auth.HMACSecretEnv, "s3cret")
	secret, err := cfg.JWTSecret()
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), secret)
}
