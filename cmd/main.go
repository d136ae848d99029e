package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/localscan/internal/adapters/esi"
	"github.com/okian/localscan/internal/adapters/http/api"
	"github.com/okian/localscan/internal/adapters/llm"
	"github.com/okian/localscan/internal/adapters/throttle"
	"github.com/okian/localscan/internal/adapters/zkill"
	app "github.com/okian/localscan/internal/app"
	"github.com/okian/localscan/internal/config"
	"github.com/okian/localscan/internal/domain/activity"
	"github.com/okian/localscan/internal/domain/profile"
	"github.com/okian/localscan/pkg/logger"
	"github.com/okian/localscan/pkg/metrics"
)

// HTTP server timeout constants. Lookups pace the killboard, so responses
// can take well over a minute for a large batch.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Minute
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if cfg.LogFormat != "" {
		if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
			os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
			os.Exit(1)
		}
	}
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := buildService(ctx, cfg, log)

	go startSystemMetricsUpdater(ctx, metrics.DefaultRefreshInterval())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc, svc, api.WithLogger(log)).Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildService wires the upstream clients, estimators and profile generator
// into the lookup service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) *app.Service {
	esiClient := esi.New(cfg.ESIBaseURL,
		esi.WithTimeout(cfg.RequestTimeout()),
		esi.WithUserAgent(cfg.UserAgent),
		esi.WithLogger(log),
	)
	zkillClient := zkill.New(cfg.ZKillBaseURL,
		zkill.WithTimeout(cfg.RequestTimeout()),
		zkill.WithUserAgent(cfg.UserAgent),
		zkill.WithPacer(throttle.NewPacer(throttle.WithInterval(cfg.KillboardDelay()))),
		zkill.WithLogger(log),
	)
	analyzer := activity.NewAnalyzer(zkillClient, esiClient, esiClient,
		activity.WithWindow(cfg.RecentKillWindow),
		activity.WithLogger(log),
	)

	genOpts := []profile.Option{profile.WithLogger(log)}
	if cfg.ProfilesEnabled() {
		narrator, err := llm.NewNarrator(llm.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.ProfileTemperature,
			MaxTokens:   cfg.ProfileMaxTokens,
			Timeout:     cfg.RequestTimeout(),
		}, log)
		if err != nil {
			log.Warn(ctx, "pilot profiles disabled", logger.Error(err))
		} else {
			genOpts = append(genOpts, profile.WithCompleter(narrator))
		}
	} else {
		log.Info(ctx, "no completion credential configured; pilot profiles disabled")
	}

	return app.New(
		app.WithResolver(esiClient),
		app.WithStatsSource(zkillClient),
		app.WithAffiliations(esiClient),
		app.WithActivity(analyzer),
		app.WithProfiles(profile.NewGenerator(genOpts...)),
		app.WithLogger(log),
	)
}

// startSystemMetricsUpdater refreshes system gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
