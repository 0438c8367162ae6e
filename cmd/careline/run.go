package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloodplusfight/careline/pkg/admission"
	admissionstore "github.com/bloodplusfight/careline/pkg/admission/store"
	"github.com/bloodplusfight/careline/pkg/breaker"
	"github.com/bloodplusfight/careline/pkg/chat"
	"github.com/bloodplusfight/careline/pkg/config"
	"github.com/bloodplusfight/careline/pkg/history"
	"github.com/bloodplusfight/careline/pkg/knowledge"
	"github.com/bloodplusfight/careline/pkg/line"
	"github.com/bloodplusfight/careline/pkg/maintenance"
	"github.com/bloodplusfight/careline/pkg/orchestrator"
	"github.com/bloodplusfight/careline/pkg/providers/registry"
	"github.com/bloodplusfight/careline/pkg/respcache"
	"github.com/bloodplusfight/careline/pkg/server"
	"github.com/bloodplusfight/careline/pkg/telemetry/logging"
	"github.com/bloodplusfight/careline/pkg/telemetry/metrics"
	"github.com/bloodplusfight/careline/pkg/telemetry/tracing"
)

var runFlags struct {
	port     int
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Careline chat server",
	Long: `Start the Careline chat server with the specified configuration.

The server answers LINE webhook messages and the JSON chat API, routing
user questions through admission control, the response cache, and the
provider fallback chain.

Examples:
  # Start with default config
  careline run

  # Start with custom config
  careline run --config /etc/careline/config.yaml

  # Override the listen port
  careline run --port 9090

  # Validate config without starting the server
  careline run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runFlags.port, "port", "p", 0, "override listen port")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.port != 0 {
		cfg.Server.Port = runFlags.port
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	logger.Info("starting careline",
		"version", Version,
		"config", cfgFile,
		"providers", len(cfg.Providers))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Telemetry
	var m *metrics.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		m = metrics.New(cfg.Telemetry.Metrics)
	}

	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Admission state
	var admStore admissionstore.Store
	switch cfg.Admission.Store.Backend {
	case "sqlite":
		admStore, err = admissionstore.NewSQLite(admissionstore.SQLiteConfig{
			Path: cfg.Admission.Store.Path,
		})
		if err != nil {
			return fmt.Errorf("failed to open admission store: %w", err)
		}
	default:
		admStore = admissionstore.NewMemory()
	}
	defer admStore.Close()

	admitter := admission.New(admission.Config{
		Burst:           cfg.Admission.Burst,
		EndpointClasses: cfg.Admission.EndpointClasses,
		PerIdentifier:   cfg.Admission.PerIdentifier,
		Global:          cfg.Admission.Global,
		Ban:             cfg.Admission.Ban,
	}, admStore, logger)
	if m != nil {
		admitter.SetMetrics(m)
	}

	// Provider chain
	chain, err := registry.Build(cfg.Providers, logger)
	if err != nil {
		return fmt.Errorf("failed to build provider chain: %w", err)
	}
	logger.Info("provider chain ready", "providers", len(chain))

	breakers := breaker.NewSet(breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		RecoveryTimeout:  cfg.Breaker.RecoveryTimeout,
		MonitoringPeriod: cfg.Breaker.MonitoringPeriod,
	})

	orch := orchestrator.New(orchestrator.Config{
		MaxRetries:     cfg.Orchestrator.MaxRetries,
		InitialTimeout: cfg.Orchestrator.InitialTimeout,
		BackoffFactor:  cfg.Orchestrator.BackoffFactor,
		MaxTimeout:     cfg.Orchestrator.MaxTimeout,
		InitialBackoff: cfg.Orchestrator.InitialBackoff,
	}, chain, breakers, logger)
	if m != nil {
		orch.SetMetrics(m)
	}

	// Response cache
	cache := respcache.New[*orchestrator.Answer](respcache.Options{
		MaxEntries:    cfg.Cache.MaxEntries,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	defer cache.Close()

	// Knowledge base
	kb := knowledge.NewBase()
	if cfg.Knowledge.Path != "" {
		if err := kb.LoadFile(cfg.Knowledge.Path); err != nil {
			logger.Warn("failed to load knowledge overrides",
				"path", cfg.Knowledge.Path, "error", err)
		}
		if cfg.Knowledge.Watch {
			go func() {
				if err := kb.Watch(ctx, cfg.Knowledge.Path, logger); err != nil {
					logger.Warn("knowledge watcher stopped", "error", err)
				}
			}()
		}
	}

	// Conversation history
	var hist *history.Store
	var transcript chat.Transcript
	if cfg.History.Enabled {
		hist, err = history.New(history.Config{Path: cfg.History.Path})
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer hist.Close()
		transcript = hist
	}

	// Housekeeping
	janitor := maintenance.New(maintenance.Config{
		HistoryPurgeSchedule: cfg.History.PurgeSchedule,
		HistoryRetention:     time.Duration(cfg.History.RetentionDays) * 24 * time.Hour,
	}, admStore, hist, logger)
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("failed to start maintenance: %w", err)
	}
	defer janitor.Stop()

	// Chat pipeline
	modelLabel := ""
	if len(chain) > 0 {
		modelLabel = chain[0].Model()
	}
	svc := chat.New(chat.Config{
		CacheTTL:           cfg.Cache.TTL,
		MinCacheConfidence: cfg.Cache.MinConfidence,
		ModelLabel:         modelLabel,
	}, admitter, cache, orch, kb, transcript, m, logger)

	// LINE reply client
	var replier server.Replier
	if cfg.Line.ChannelAccessToken != "" {
		replier = line.NewClient(line.ClientConfig{
			ChannelAccessToken: cfg.Line.ChannelAccessToken,
			ReplyEndpoint:      cfg.Line.ReplyEndpoint,
		})
	} else {
		logger.Warn("no LINE channel access token configured, webhook replies disabled")
	}

	srv := server.New(cfg.Server, server.Options{
		Chat:          svc,
		Replier:       replier,
		ChannelSecret: cfg.Line.ChannelSecret,
		Metrics:       m,
		Ready:         func() bool { return true },
	}, logger)

	logger.Info("careline ready",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	return srv.Start(ctx)
}
