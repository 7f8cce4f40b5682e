package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"domaauction/core/types"
	"domaauction/native/auction"
	nativecommon "domaauction/native/common"
)

var knownModules = map[string]bool{"auction": true, "registry": true, "loyalty": true}

// Validate checks the configuration for consistency. The auction section is
// validated by converting it into engine parameters.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	for _, module := range c.PausedModules {
		if !knownModules[strings.ToLower(strings.TrimSpace(module))] {
			return fmt.Errorf("config: unknown paused module %q", module)
		}
	}
	if _, err := c.AuctionParams(); err != nil {
		return err
	}
	if c.Auction.SweepInterval.Duration < 0 {
		return fmt.Errorf("auction: SweepInterval must be non-negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must be non-negative")
	}
	switch strings.ToLower(c.Audit.Driver) {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("audit: unsupported driver %q", c.Audit.Driver)
	}
	if strings.TrimSpace(c.Webhook.URL) != "" && strings.TrimSpace(c.Webhook.SecretEnv) == "" {
		return fmt.Errorf("webhook: SecretEnv required when URL is set")
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.HMACSecretEnv) == "" {
		return fmt.Errorf("auth: HMACSecretEnv required when auth is enabled")
	}
	return nil
}

// AuctionParams converts the auction section into engine parameters.
func (c *Config) AuctionParams() (auction.Params, error) {
	a := c.Auction
	params := auction.DefaultParams()

	bondBps, err := types.FractionToBps(a.BondFraction)
	if err != nil {
		return params, fmt.Errorf("auction: BondFraction: %w", err)
	}
	feeBps, err := types.FractionToBps(a.ProtocolFee)
	if err != nil {
		return params, fmt.Errorf("auction: ProtocolFee: %w", err)
	}
	params.BondBps = bondBps
	params.ProtocolFeeBps = feeBps
	if strings.TrimSpace(a.FeeTreasury) != "" {
		treasury, err := types.ParseAddress(a.FeeTreasury)
		if err != nil {
			return params, fmt.Errorf("auction: FeeTreasury: %w", err)
		}
		params.FeeTreasury = treasury
	}
	params.GraceWindow = seconds(a.GraceWindow)
	params.RewardParticipants = a.RewardParticipants
	params.AutoRefundOnSettle = a.AutoRefundOnSettle
	if a.MaxBatchSize != 0 {
		params.MaxBatchSize = a.MaxBatchSize
	}
	if a.MinDuration.Duration != 0 {
		params.MinDuration = seconds(a.MinDuration)
	}
	if a.MaxDuration.Duration != 0 {
		params.MaxDuration = seconds(a.MaxDuration)
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// Pauses returns the configured module pause set.
func (c *Config) Pauses() nativecommon.PauseSet {
	return nativecommon.NewPauseSet(c.PausedModules...)
}

// JWTSecret resolves the HMAC secret from the configured environment variable.
func (c *Config) JWTSecret() ([]byte, error) {
	return secretFromEnv("auth", c.Auth.HMACSecretEnv)
}

// WebhookSecret resolves the webhook signing secret.
func (c *Config) WebhookSecret() ([]byte, error) {
	return secretFromEnv("webhook", c.Webhook.SecretEnv)
}

func secretFromEnv(section, key string) ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv(key))
	if secret == "" {
		return nil, fmt.Errorf("%s: %s is not set", section, key)
	}
	return []byte(secret), nil
}

func seconds(d Duration) int64 {
	return int64(d.Duration / time.Second)
}
