package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"domaauction/config"
	"domaauction/core"
	"domaauction/core/events"
	"domaauction/core/genesis"
	"domaauction/core/types"
	"domaauction/gateway/middleware"
	"domaauction/gateway/routes"
	"domaauction/native/auction"
	"domaauction/observability/logging"
	"domaauction/observability/metrics"
	telemetry "domaauction/observability/otel"
	"domaauction/storage"
)

func main() {
	var (
		cfgPath     string
		exportDir   string
		exportAudit bool
		verifyAudit bool
	)
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to auctiond configuration")
	flag.BoolVar(&exportAudit, "export-audit", false, "verify the audit trail, export it as csv, jsonl and parquet, then exit")
	flag.StringVar(&exportDir, "export-dir", "", "export directory (defaults to audit.ExportDir, then DataDir/exports)")
	flag.BoolVar(&verifyAudit, "verify-audit", false, "verify the audit hash chain and exit")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, closer := logging.Setup(logging.Options{
		Service:    cfg.Telemetry.ServiceName,
		Env:        cfg.Telemetry.Environment,
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer closer.Close()

	if exportAudit || verifyAudit {
		if !exportAudit {
			exportDir = ""
		} else if exportDir == "" {
			exportDir = cfg.Audit.ExportDir
			if exportDir == "" {
				exportDir = filepath.Join(cfg.DataDir, "exports")
			}
		}
		if err := runAuditTool(cfg, exportDir, logger); err != nil {
			logger.Error("audit tool failed", "error", err)
			os.Exit(1)
		}
		return
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("auctiond exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params, err := cfg.AuctionParams()
	if err != nil {
		return err
	}
	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:     cfg.Telemetry.ServiceName,
		Environment:     cfg.Telemetry.Environment,
		Endpoint:        cfg.Telemetry.Endpoint,
		Insecure:        cfg.Telemetry.Insecure,
		Headers:         telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		MetricsInterval: cfg.Telemetry.MetricsInterval.Duration,
		Auction: telemetry.AuctionResource{
			ModuleAddress:  types.HexAddress(auction.ModuleAddress),
			BondBps:        params.BondBps,
			ProtocolFeeBps: params.ProtocolFeeBps,
			GraceWindow:    params.GraceWindow,
		},
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	if tel.Exporting {
		logger.Info("exporting telemetry", "endpoint", cfg.Telemetry.Endpoint)
	}

	db, err := storage.NewLevelDB(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	node, err := core.NewNode(db, core.Options{Params: params, Pauses: cfg.Pauses(), Logger: logger})
	if err != nil {
		return err
	}
	if err := deploy(node, cfg, logger); err != nil {
		return err
	}

	stream := events.NewBroadcaster(256)
	sinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sinks.Close()
	node.SetEmitter(events.Fanout{stream, metrics.Auction(), sinks})

	handler, err := newHandler(cfg, node, stream, tel.Operations, logger)
	if err != nil {
		return err
	}

	go runSweeper(ctx, node, cfg.Auction.SweepInterval.Duration, logger)

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           otelhttp.NewHandler(handler, "auctiond"),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", listener.Addr().String(), "module", types.HexAddress(node.ModuleAddress()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	return nil
}

// deploy runs the one-time deployment from the genesis file on a fresh data
// directory. Restarts reuse the stored deployment.
func deploy(node *core.Node, cfg *config.Config, logger *slog.Logger) error {
	if node.Deployed() {
		summary, err := node.Deploy(nil)
		if err != nil {
			return err
		}
		logger.Info("reopened deployment",
			"deployer", types.HexAddress(summary.Deployer),
			"registrar", types.HexAddress(summary.Registrar),
			"deployed_at", summary.DeployedAt)
		return nil
	}
	if cfg.GenesisFile == "" {
		return fmt.Errorf("GenesisFile required for the first start")
	}
	spec, err := genesis.LoadGenesisSpec(cfg.GenesisFile)
	if err != nil {
		return err
	}
	_, err = node.Deploy(spec)
	return err
}

func newHandler(cfg *config.Config, node *core.Node, stream *events.Broadcaster, ops *telemetry.Operations, logger *slog.Logger) (http.Handler, error) {
	authCfg := middleware.AuthConfig{
		Enabled:   cfg.Auth.Enabled,
		Issuer:    cfg.Auth.Issuer,
		Audience:  cfg.Auth.Audience,
		ClockSkew: cfg.Auth.MaxSkew.Duration,
	}
	if cfg.Auth.Enabled {
		secret, err := cfg.JWTSecret()
		if err != nil {
			return nil, err
		}
		authCfg.HMACSecret = secret
	}
	limit := middleware.RateLimit{RequestsPerSecond: cfg.RateLimit.RequestsPerSecond, Burst: cfg.RateLimit.Burst}
	limits := map[string]middleware.RateLimit{}
	for _, group := range []string{"lots", "bonds", "accounts", "domains", "loyalty"} {
		limits[group] = limit
	}
	return routes.New(routes.Config{
		Node:          node,
		Stream:        stream,
		Authenticator: middleware.NewAuthenticator(authCfg, logger),
		RateLimiter:   middleware.NewRateLimiter(limits, logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			LogRequests: true,
		}, logger),
		Operations: ops,
		Logger:     logger,
	}), nil
}
