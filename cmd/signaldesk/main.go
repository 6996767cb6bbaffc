package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/SignalDesk/internal/api/binance"
	"github.com/Alias1177/SignalDesk/internal/config"
	"github.com/Alias1177/SignalDesk/internal/engine"
	"github.com/Alias1177/SignalDesk/internal/gate"
	"github.com/Alias1177/SignalDesk/internal/metrics"
	"github.com/Alias1177/SignalDesk/internal/signals"
)

var (
	dryRun      bool
	metricsFile string
	tickTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "signaldesk",
	Short: "Market structure scanner and trade signal desk",
	Long: `signaldesk fetches a multi-timeframe bar window for one futures symbol, builds a
market structure snapshot and scores the signal catalogue against it. Each run is
one tick; schedule it externally.`,
	SilenceUsage: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one tick and emit the sendable plays",
	RunE:  runScan,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the market snapshot as JSON",
	RunE:  runSnapshot,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&tickTimeout, "timeout", 2*time.Minute, "Deadline for the whole tick")
	scanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log plays instead of sending them (overrides DRY_RUN)")
	scanCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	rootCmd.AddCommand(scanCmd, snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
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

// loadConfig reads and validates the configuration
func loadConfig(forceDryRun bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.LogLevel)

	if forceDryRun {
		cfg.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func tickContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func newProvider(cfg *config.Config) *binance.Client {
	return binance.NewClient(binance.ClientOptions{
		BaseURL:         cfg.BinanceBaseURL,
		DataURL:         cfg.BinanceDataURL,
		SentimentURL:    cfg.SentimentURL,
		GlobalURL:       cfg.GlobalURL,
		LiquidationURL:  cfg.LiquidationURL,
		RequestTimeout:  cfg.RequestTimeout,
		RequestsPerSec:  cfg.RequestsPerSec,
		MaxRetryTimeout: cfg.MaxRetryTimeout,
	})
}

func engineParams(cfg *config.Config) engine.Params {
	return engine.Params{
		Symbol:  cfg.Symbol,
		Analyze: cfg.Tuning.Analyze,
		Gate:    cfg.Tuning.Gate,
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(dryRun)
	if err != nil {
		return err
	}

	ctx, cancel := tickContext()
	defer cancel()

	rules, err := cfg.Tuning.RuleSet()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer closeStore()

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	recorder := metrics.New()
	eng := engine.New(
		newProvider(cfg),
		signals.NewDetector(rules, cfg.Tuning.Risk, cfg.Tuning.Scoring),
		gate.NewManager(store, notifier, cfg.Tuning.Lifecycle),
		recorder,
		engineParams(cfg),
	)

	_, tickErr := eng.Tick(ctx)

	if metricsFile != "" {
		if err := recorder.WriteToTextfile(metricsFile); err != nil {
			log.Error().Err(err).Msg("Failed to write metrics")
		}
	}
	return tickErr
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx, cancel := tickContext()
	defer cancel()

	eng := engine.New(newProvider(cfg), nil, nil, nil, engineParams(cfg))
	snap, err := eng.Snapshot(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
