// storelens analyzes merchant analytics reports for business risks and
// matches each merchant to a customer persona.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/analysis"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/api"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/bus"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/cache"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/config"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/repository"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/velocity"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (default: ./storelens.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging)

	slog.Info("starting storelens",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"throttle", cfg.Throttle.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	var opts []analysis.Option
	if cfg.Tracing.Enabled {
		opts = append(opts, analysis.WithTracer(otel.Tracer(cfg.Tracing.ServiceName)))
	}
	analyzer := analysis.NewDefault(opts...)
	loadReferenceData(ctx, repo, analyzer)

	limiter := velocity.NewLimiter(cacheImpl, cfg.Throttle)
	if limiter.Enabled() {
		slog.Info("submission throttle enabled",
			"max_per_window", cfg.Throttle.MaxPerWindow,
			"window", cfg.Throttle.Window,
		)
	}

	var analysisWorker *worker.Worker
	if cfg.Worker.Enabled {
		analysisWorker = worker.NewWorker(busImpl, repo, cacheImpl, analyzer, cfg.Cache.AnalysisTTL)
		if err := analysisWorker.Start(worker.Config{TenantIDs: cfg.Worker.TenantIDs}); err != nil {
			slog.Error("failed to start analysis worker", "error", err)
		} else {
			slog.Info("analysis worker started", "tenant_count", len(cfg.Worker.TenantIDs))
		}
	}

	handler := api.NewHandler(api.Dependencies{
		Repo:         repo,
		Cache:        cacheImpl,
		Bus:          busImpl,
		Analyzer:     analyzer,
		Limiter:      limiter,
		CacheTTL:     cfg.Cache.AnalysisTTL,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Version:      Version,
	})
	srv := api.NewServer(cfg.Server, handler)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("storelens is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	if analysisWorker != nil {
		if err := analysisWorker.Stop(); err != nil {
			slog.Error("failed to stop analysis worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("storelens shutdown complete")
}

func setupLogger(cfg domain.LoggingConfig) {
	opts := &slog.HandlerOptions{Level: config.LogLevel(cfg.Level)}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// loadReferenceData applies stored persona templates and industry averages
// over the built-ins. Failures keep the built-ins.
func loadReferenceData(ctx context.Context, repo domain.Repository, analyzer *analysis.Analyzer) {
	personas, err := analyzer.ReloadPersonas(ctx, repo)
	if err != nil {
		slog.Warn("failed to load stored personas, using built-ins", "error", err)
	} else {
		slog.Info("persona library loaded", "templates_count", personas)
	}

	industries, err := analyzer.ReloadIndustries(ctx, repo)
	if err != nil {
		slog.Warn("failed to load stored industry averages, using built-ins", "error", err)
	} else {
		slog.Info("industry averages loaded", "industries_count", industries)
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║                STORELENS                  ║")
	fmt.Println("  ║      Merchant Risk & Persona Engine       ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /analyze                  - Analyze a merchant report (?async=true to queue)")
	fmt.Println("    GET  /analyses/{id}            - Get analysis by ID")
	fmt.Println("    GET  /merchants/{id}/analyses  - List a merchant's analyses")
	fmt.Println("    GET  /reports/{id}             - Get stored report by ID")
	fmt.Println("    GET  /risk-codes               - List risk codes R1-R10")
	fmt.Println("    POST /risks/evaluate           - Evaluate risks for given metrics")
	fmt.Println("    GET  /personas                 - List persona templates")
	fmt.Println("    POST /personas                 - Store a persona template")
	fmt.Println("    POST /personas/match           - Match components to a persona")
	fmt.Println("    POST /personas/reload          - Hot-reload persona templates")
	fmt.Println("    GET  /industries               - List industry averages")
	fmt.Println("    PUT  /industries               - Store industry averages")
	fmt.Println("    POST /industries/reload        - Hot-reload industry averages")
	fmt.Println("    GET  /health                   - Health check")
	fmt.Println("    GET  /metrics                  - Prometheus metrics")
	fmt.Println()
}
