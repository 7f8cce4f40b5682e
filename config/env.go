package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides overwrites fields for every AUCTION_* variable that is set
// and non-empty, so secrets and per-host values can be injected at deploy time.
func applyEnvOverrides(cfg *Config) error {
	setStr(&cfg.ListenAddress, "AUCTION_LISTEN_ADDRESS")
	setStr(&cfg.DataDir, "AUCTION_DATA_DIR")
	setStr(&cfg.GenesisFile, "AUCTION_GENESIS_FILE")
	if v, ok := lookup("AUCTION_PAUSED_MODULES"); ok {
		cfg.PausedModules = splitList(v)
	}

	setStr(&cfg.Auction.BondFraction, "AUCTION_BOND_FRACTION")
	setStr(&cfg.Auction.ProtocolFee, "AUCTION_PROTOCOL_FEE")
	setStr(&cfg.Auction.FeeTreasury, "AUCTION_FEE_TREASURY")
	if err := setDuration(&cfg.Auction.GraceWindow, "AUCTION_GRACE_WINDOW"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Auction.SweepInterval, "AUCTION_SWEEP_INTERVAL"); err != nil {
		return err
	}
	if err := setBool(&cfg.Auction.AutoRefundOnSettle, "AUCTION_AUTO_REFUND_ON_SETTLE"); err != nil {
		return err
	}

	if err := setBool(&cfg.Auth.Enabled, "AUCTION_AUTH_ENABLED"); err != nil {
		return err
	}
	setStr(&cfg.Audit.Driver, "AUCTION_AUDIT_DRIVER")
	setStr(&cfg.Audit.DSN, "AUCTION_AUDIT_DSN")
	setStr(&cfg.Redis.Addr, "AUCTION_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "AUCTION_REDIS_PASSWORD")
	setStr(&cfg.Webhook.URL, "AUCTION_WEBHOOK_URL")
	setStr(&cfg.Telemetry.Endpoint, "AUCTION_OTLP_ENDPOINT")
	setStr(&cfg.Telemetry.Environment, "AUCTION_ENV")
	setStr(&cfg.Logging.Level, "AUCTION_LOG_LEVEL")
	setStr(&cfg.Logging.File, "AUCTION_LOG_FILE")
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setStr(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setDuration(dst *Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	dst.Duration = parsed
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
