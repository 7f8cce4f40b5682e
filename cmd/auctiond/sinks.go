package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"domaauction/config"
	"domaauction/core/events"
	"domaauction/integrations/audit"
	"domaauction/integrations/exports"
	"domaauction/integrations/redisbus"
	"domaauction/integrations/webhooks"
)

// sinks fans committed events out to the optional external integrations.
type sinks struct {
	emitters events.Fanout
	closers  []func()
}

func (s *sinks) Emit(evt events.Event) { s.emitters.Emit(evt) }

func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sinks, error) {
	out := &sinks{}
	fail := func(err error) (*sinks, error) {
		out.Close()
		return nil, err
	}

	if cfg.Audit.Driver != "" {
		log, closeAudit, err := openAudit(cfg, logger)
		if err != nil {
			return fail(err)
		}
		out.emitters = append(out.emitters, log)
		out.closers = append(out.closers, closeAudit)
	}

	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := redisbus.Connect(pingCtx, redisbus.ClientConfig{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		cancel()
		if err != nil {
			return fail(err)
		}
		bus, err := redisbus.New(client, cfg.Redis.Channel, logger.With("sink", "redis"))
		if err != nil {
			_ = client.Close()
			return fail(err)
		}
		out.emitters = append(out.emitters, bus)
		out.closers = append(out.closers, func() {
			bus.Close()
			closeRedis(client, logger)
		})
	}

	if url := strings.TrimSpace(cfg.Webhook.URL); url != "" {
		secret, err := cfg.WebhookSecret()
		if err != nil {
			return fail(err)
		}
		dispatcher, err := webhooks.NewDispatcher(url, secret,
			webhooks.WithEventPrefixes(cfg.Webhook.EventPrefixes...),
			webhooks.WithLogger(logger.With("sink", "webhook")))
		if err != nil {
			return fail(err)
		}
		out.emitters = append(out.emitters, dispatcher)
		out.closers = append(out.closers, dispatcher.Close)
	}
	return out, nil
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("close redis", "error", err)
	}
}

func openAudit(cfg *config.Config, logger *slog.Logger) (*audit.Log, func(), error) {
	dsn := cfg.Audit.DSN
	if cfg.Audit.Driver == "sqlite" && !filepath.IsAbs(dsn) && !strings.HasPrefix(dsn, "file:") {
		dsn = filepath.Join(cfg.DataDir, dsn)
	}
	db, err := audit.Open(cfg.Audit.Driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	log, err := audit.New(db, logger.With("sink", "audit"))
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return log, closeDB, nil
}

// runAuditTool verifies the hash chain and optionally exports the trail.
func runAuditTool(cfg *config.Config, exportDir string, logger *slog.Logger) error {
	if cfg.Audit.Driver == "" {
		return fmt.Errorf("audit trail disabled in configuration")
	}
	log, closeDB, err := openAudit(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	checked, err := log.Verify(ctx)
	if err != nil {
		return err
	}
	seq, head := log.Head()
	logger.Info("audit chain verified", "records", checked, "head_seq", seq, "head_hash", head)
	if exportDir == "" {
		return nil
	}
	records, err := log.Records(ctx, audit.Filter{})
	if err != nil {
		return err
	}
	prefix := fmt.Sprintf("audit-%d", time.Now().UTC().Unix())
	bundle, err := exports.WriteBundle(exportDir, prefix, records)
	if err != nil {
		return err
	}
	logger.Info("audit exported",
		"records", bundle.Records,
		"csv", bundle.CSVPath,
		"csv_sha256", bundle.CSVChecksum,
		"jsonl", bundle.JSONLPath,
		"jsonl_sha256", bundle.JSONLChecksum,
		"parquet", bundle.ParquetPath)
	return nil
}
