package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solacehq/solace/engine"
	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/cache"
	"github.com/solacehq/solace/engine/catalog"
	"github.com/solacehq/solace/engine/governor"
	"github.com/solacehq/solace/engine/llm"
	"github.com/solacehq/solace/engine/selector"
	"github.com/solacehq/solace/engine/session"
	"github.com/solacehq/solace/internal/observability"
	"github.com/solacehq/solace/internal/profile"
	"github.com/solacehq/solace/server"
	"github.com/solacehq/solace/store/db"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "solaced",
	Short: "solaced is the response decision pipeline for the solace chat product",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	prof, err := profile.FromEnv(version)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	level := slog.LevelInfo
	if prof.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("starting solaced",
		"version", version,
		"mode", prof.Mode,
		"driver", prof.Driver,
		"catalog", prof.CatalogPath)

	driver, err := db.NewDBDriver(prof)
	if err != nil {
		return fmt.Errorf("creating store driver: %w", err)
	}
	defer driver.Close()
	if err := driver.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	cat, err := catalog.NewStore(prof.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading template catalog: %w", err)
	}

	metrics := observability.NewMetrics(prof.GovernorWindow * 4)

	contextCache := cache.NewService(cache.ServiceConfig{
		Capacity:   prof.CacheCapacity,
		DefaultTTL: prof.SessionTTL,
	})
	defer contextCache.Close()

	extractor := session.NewExtractor(contextCache, driver, driver, metrics, session.ExtractorConfig{
		QueryBudget: prof.QueryBudget,
		ReadTimeout: prof.StoreReadTimeout,
		SessionTTL:  prof.SessionTTL,
	})

	gov := governor.New(governor.Config{
		WindowSize:       prof.GovernorWindow,
		MaxErrorRate:     prof.GovernorErrorRate,
		MaxP95Latency:    prof.GovernorLatency,
		MaxHeapBytes:     uint64(prof.GovernorMemoryMB) << 20,
		Cooldown:         prof.GovernorCooldown,
		LLMEnabled:       prof.IsLLMEnabled(),
		LLMRatePerMinute: prof.LLMRatePerMinute,
		LLMBurst:         prof.LLMBurst,
	})

	var completer llm.Completer
	if prof.IsLLMEnabled() {
		completer = llm.NewClient(llm.Config{
			BaseURL: prof.LLMBaseURL,
			APIKey:  prof.LLMAPIKey,
			Model:   prof.LLMModel,
		})
		slog.Info("completion client enabled", "model", prof.LLMModel)
	}

	eng := engine.New(
		engine.Config{ComplexityThreshold: prof.ComplexityThreshold},
		analyzer.New(),
		extractor,
		selector.New(cat, selector.NewUsageTracker(prof.UsageCapacity, prof.RotationWindow)),
		gov,
		completer,
		metrics,
		logger,
	)

	srv := server.NewServer(prof, eng, cat, metrics)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("solaced stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
