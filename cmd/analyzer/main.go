package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/dtiquant/internal/analysis/prediction"
	"github.com/Alias1177/dtiquant/internal/api/twelvedata"
	"github.com/Alias1177/dtiquant/internal/config"
	"github.com/Alias1177/dtiquant/internal/database"
	"github.com/Alias1177/dtiquant/internal/metrics"
	"github.com/Alias1177/dtiquant/internal/notify"
	"github.com/Alias1177/dtiquant/internal/service"
	"github.com/Alias1177/dtiquant/internal/trading/optimizer"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting DTI analyzer")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// 3. Print configuration
	printConfig(cfg)

	// 4. Wire dependencies
	recorder := metrics.NewRecorder()
	deps := service.Dependencies{
		Source: twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:         cfg.TwelveAPIKey,
			RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
			RequestsPerSec: cfg.RequestsPerSec,
			MaxRetries:     cfg.MaxRetries,
		}),
		Forecaster: prediction.NewEngine(prediction.Options{
			Horizon:            cfg.ForecastHorizon,
			Paths:              cfg.MonteCarloPaths,
			PatternLookbackYrs: cfg.PatternLookbackYears,
			RiskFreeRate:       cfg.RiskFreeRate,
		}, newRand(cfg.MonteCarloSeed)),
		Recorder: recorder,
	}

	if cfg.DB.Enabled() {
		db, err := database.New(ctx, database.ConnectionParams(cfg.DB))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		deps.Store = database.NewTradeRepository(db)
		log.Info().Str("host", cfg.DB.Host).Msg("Trade history persistence enabled")
	}

	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up Telegram notifier")
		}
		deps.Notifier = tg
	}

	analyzer, err := service.NewAnalyzer(deps, service.Options{
		Symbol:               cfg.Symbol,
		HistoryDays:          cfg.HistoryDays,
		Periods:              cfg.DTIPeriods,
		Params:               cfg.TradingParameters(),
		Optimize:             cfg.EnableOptimization,
		Ranges:               cfg.ParamRanges(),
		Optimizer:            optimizer.Options{Workers: cfg.OptWorkers, MinTrades: cfg.OptMinTrades},
		PatternLookbackYears: cfg.PatternLookbackYears,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analyzer")
	}

	// 5. Run analysis, serving metrics alongside when configured
	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, recorder)
		})
	}
	g.Go(func() error {
		defer cancel()
		return runLoop(gctx, analyzer, cfg.RunInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Analyzer stopped")
	}
	log.Info().Msg("Analyzer stopped")
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Symbol", cfg.Symbol).
		Int("HistoryDays", cfg.HistoryDays).
		Str("DTIPeriods", cfg.DTIPeriods.String()).
		Float64("EntryThreshold", cfg.EntryThreshold).
		Float64("TakeProfitPercent", cfg.TakeProfitPercent).
		Float64("StopLossPercent", cfg.StopLossPercent).
		Int("MaxHoldingDays", cfg.MaxHoldingDays).
		Bool("SevenDayFilter", cfg.SevenDayFilter).
		Bool("EnableOptimization", cfg.EnableOptimization).
		Int("OptimizationCandidates", cfg.ParamRanges().Size()).
		Int("ForecastHorizon", cfg.ForecastHorizon).
		Int("MonteCarloPaths", cfg.MonteCarloPaths).
		Bool("Database", cfg.DB.Enabled()).
		Bool("Telegram", cfg.TelegramBotToken != "").
		Dur("RunInterval", cfg.RunInterval).
		Msg("Configuration loaded")
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed))
}

// runLoop analyzes once, then again on every tick when interval is positive
func runLoop(ctx context.Context, analyzer *service.Analyzer, interval time.Duration) error {
	if err := runOnce(ctx, analyzer); err != nil && interval <= 0 {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// A failed run is logged and retried on the next tick
			_ = runOnce(ctx, analyzer)
		}
	}
}

func runOnce(ctx context.Context, analyzer *service.Analyzer) error {
	rep, err := analyzer.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Analysis failed")
		return err
	}

	fmt.Println(rep.Text)
	return nil
}

// serveMetrics exposes /metrics until ctx is done
func serveMetrics(ctx context.Context, addr string, recorder *metrics.Recorder) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
