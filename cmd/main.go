package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sabarim/gapfeed/internal/auth"
	"github.com/sabarim/gapfeed/internal/config"
	"github.com/sabarim/gapfeed/internal/features"
	"github.com/sabarim/gapfeed/internal/frame"
	"github.com/sabarim/gapfeed/internal/historical"
	"github.com/sabarim/gapfeed/internal/instruments"
	"github.com/sabarim/gapfeed/internal/logging"
	"github.com/sabarim/gapfeed/internal/partition"
	"github.com/sabarim/gapfeed/internal/pipeline"
	"github.com/sabarim/gapfeed/internal/storage"
)

var (
	configFile  string
	symbolsStr  string
	days        int
	provider    string
	bucket      string
	endpoint    string
	sink        string
	localDir    string
	windowOrder string
	verbose     bool
	version     bool
)

var appVersion = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "gapfeed",
		Short: "Compute daily price gap features and store them as date-partitioned Parquet",
		Long: `gapfeed downloads one year of daily prices for a list of tickers, derives
gap features (rounded prices, high-low gap, gap category, rolling mean and
standard deviation) and writes one Parquet file per trading date to S3.`,
		SilenceUsage: true,
		RunE:         runRootCommand,
	}

	rootCmd.Flags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.Flags().StringVar(&symbolsStr, "symbols", "", "Comma-separated list of symbols to download")
	rootCmd.Flags().IntVar(&days, "days", 0, "Number of days to fetch")
	rootCmd.Flags().StringVar(&provider, "provider", "", "Price provider (yahoo, kite)")
	rootCmd.Flags().StringVar(&bucket, "bucket", "", "Destination bucket")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", "", "S3 endpoint URL")
	rootCmd.Flags().StringVar(&sink, "sink", "", "Where partitions go (s3, local)")
	rootCmd.Flags().StringVar(&localDir, "local-dir", "", "Output directory for the local sink")
	rootCmd.Flags().StringVar(&windowOrder, "window-order", "", "Rolling window order (global, per_symbol)")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&version, "version", false, "Print version information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRootCommand(cmd *cobra.Command, args []string) error {
	if version {
		fmt.Printf("gapfeed version %s\n", appVersion)
		return nil
	}

	// 1. Load configuration from file and environment
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	// 2. Override configuration with command-line flags
	if err := applyFlags(&cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	if cfg.FileUsed != "" {
		logger.Info("configuration loaded", zap.String("file", cfg.FileUsed))
	} else {
		logger.Info("config file not found, using environment and defaults", zap.String("path", configFile))
	}

	// 3. Create context that is cancelled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigchan:
			logger.Warn("received signal, initiating shutdown", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		return err
	}
	return nil
}

func applyFlags(cfg *config.Config) error {
	if symbolsStr != "" {
		symbols := strings.Split(symbolsStr, ",")
		for i := range symbols {
			symbols[i] = strings.TrimSpace(symbols[i])
		}
		cfg.Fetch.Symbols = frame.Filter(symbols, func(s string) bool { return s != "" })
	}
	if days > 0 {
		cfg.Fetch.DaysToFetch = days
	}
	if provider != "" {
		cfg.Fetch.Provider = strings.ToLower(provider)
	}
	if bucket != "" {
		cfg.Storage.Bucket = bucket
	}
	if endpoint != "" {
		cfg.Storage.Endpoint = endpoint
	}
	if sink != "" {
		s, err := storage.ParseSink(sink)
		if err != nil {
			return err
		}
		cfg.Storage.Sink = s
	}
	if localDir != "" {
		cfg.Storage.LocalDir = localDir
	}
	if windowOrder != "" {
		cfg.Pipeline.WindowOrder = windowOrder
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return nil
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	order, err := features.ParseOrder(cfg.Pipeline.WindowOrder)
	if err != nil {
		return err
	}

	// 4. Initialize the price provider
	source, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize %s provider: %w", cfg.Fetch.Provider, err)
	}

	// 5. Initialize the destination
	store, err := buildStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize %s sink: %w", cfg.Storage.Sink, err)
	}

	runID := uuid.NewString()
	writer := partition.NewWriter(store, partition.ParquetEncoder{}, map[string]string{
		"format":      "parquet",
		"compression": "snappy",
		"run_id":      runID,
	}, logger)

	p := pipeline.New(pipeline.Config{
		RunID:   runID,
		Symbols: cfg.Fetch.Symbols,
		Window:  cfg.Pipeline.Window,
		Order:   order,
	}, historical.NewDownloader(source, cfg.Fetch.DaysToFetch, logger), writer, logger)

	// 6. Fetch, transform and upload
	_, err = p.Run(ctx)
	return err
}

func buildProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (historical.Provider, error) {
	switch cfg.Fetch.Provider {
	case "yahoo":
		return historical.NewYahooProvider(historical.YahooConfig{
			BaseURL:    cfg.Fetch.YahooBaseURL,
			UserAgent:  cfg.Fetch.UserAgent,
			AutoAdjust: cfg.Fetch.AutoAdjust,
			Timeout:    cfg.Fetch.Timeout,
		}, logger), nil

	case "kite":
		authManager := auth.NewAuthManager(cfg.Auth, logger)
		kiteClient, err := authManager.GetClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get authenticated client: %w", err)
		}

		instrumentManager := instruments.NewInstrumentManager(nil, cfg.Broker.InstrumentsNSEURL,
			afero.NewOsFs(), cfg.Broker.InstrumentsPath, logger)
		if err := instrumentManager.DownloadInstruments(ctx); err != nil {
			// a dump saved by an earlier run is good enough for token lookups
			if _, loadErr := instrumentManager.LoadFile(cfg.Broker.InstrumentsPath); loadErr != nil {
				return nil, fmt.Errorf("failed to download instruments: %w", err)
			}
			logger.Warn("instrument download failed, using saved dump",
				zap.String("path", cfg.Broker.InstrumentsPath), zap.Error(err))
		}
		found := instrumentManager.GetInstrumentsForSymbols(cfg.Fetch.Symbols)
		logger.Info("instruments resolved", zap.Int("found", len(found)), zap.Int("requested", len(cfg.Fetch.Symbols)))
		return historical.NewKiteProvider(kiteClient, instrumentManager, logger), nil

	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Fetch.Provider)
	}
}

func buildStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.ObjectStore, error) {
	switch cfg.Sink {
	case storage.SinkS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle:    cfg.UsePathStyle,
		}, logger)
	case storage.SinkLocal:
		return storage.NewFSStore(afero.NewOsFs(), cfg.LocalDir, logger)
	default:
		return nil, fmt.Errorf("unsupported sink %q", cfg.Sink)
	}
}
