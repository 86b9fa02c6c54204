package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/floatwatch/internal/common"
	"github.com/ternarybob/floatwatch/internal/httpclient"
	"github.com/ternarybob/floatwatch/internal/interfaces"
	"github.com/ternarybob/floatwatch/internal/monitor"
	"github.com/ternarybob/floatwatch/internal/quotes"
	"github.com/ternarybob/floatwatch/internal/sources"
	"github.com/ternarybob/floatwatch/internal/status"
	"github.com/ternarybob/floatwatch/internal/storage"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	runOnce      = flag.Bool("once", false, "Run a single ingestion cycle and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Floatwatch version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Initialize logger
	// 3. Print banner
	// 4. Wire storage, quotes, sources, monitor

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("floatwatch.toml"); err == nil {
			configFiles = append(configFiles, "floatwatch.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetFullVersion())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewArticleStorage(ctx, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Str("type", config.Storage.Type).Msg("Failed to initialize storage")
		os.Exit(1)
	}
	defer store.Close()

	enricher := buildEnricher(config, logger)
	adapters := buildAdapters(config, logger)
	sink := status.NewService()

	svc := monitor.NewService(adapters, enricher, store, sink, logger, &config.Monitor)

	if *runOnce {
		if err := svc.RunCycle(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Ingestion cycle failed")
			os.Exit(1)
		}
		st := sink.Snapshot()
		logger.Info().
			Int("saved", st.ArticlesSaved).
			Int("total", st.ArticlesTotal).
			Msg("Single cycle complete")
		return
	}

	if !config.Monitor.Enabled {
		logger.Fatal().Msg("Monitor is disabled in configuration; nothing to run (use -once for a single cycle)")
		os.Exit(1)
	}

	if err := svc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start ingestion monitor")
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")
	svc.Stop()
}

func buildEnricher(config *common.Config, logger arbor.ILogger) *quotes.Enricher {
	clientOpts := []quotes.ClientOption{
		quotes.WithLogger(logger),
		quotes.WithRateLimit(config.Quotes.RateLimit),
		quotes.WithHTTPClient(httpclient.NewDefaultHTTPClient(config.Quotes.HTTPTimeout.Std())),
	}
	if config.Quotes.BaseURL != "" {
		clientOpts = append(clientOpts, quotes.WithBaseURL(config.Quotes.BaseURL))
	}
	client := quotes.NewClient(config.Quotes.APIKey, clientOpts...)

	return quotes.NewEnricher(client, logger,
		quotes.WithWorkers(config.Quotes.Workers),
		quotes.WithRetries(config.Quotes.MaxRetries, config.Quotes.RetryDelay.Std()),
	)
}

func buildAdapters(config *common.Config, logger arbor.ILogger) []interfaces.SourceAdapter {
	client := httpclient.NewBrowserClient(config.Crawler.UserAgent, config.Crawler.RequestTimeout.Std())
	retry := sources.NewRetryPolicy(config.Crawler.MaxRetries, config.Crawler.RetryDelay.Std())
	delay := sources.NewPoliteDelay(config.Crawler.RequestDelay.Std())

	options := func(src common.SourceConfig) sources.Options {
		return sources.Options{
			BaseURL: src.BaseURL,
			Client:  client,
			Logger:  logger,
			Retry:   retry,
			Delay:   delay,
		}
	}

	var adapters []interfaces.SourceAdapter
	add := func(src common.SourceConfig, adapter interfaces.SourceAdapter) {
		if !src.Enabled {
			logger.Debug().Str("source", adapter.Name()).Msg("Source disabled")
			return
		}
		adapters = append(adapters, sources.LimitPages(adapter, config.MaxPagesFor(src)))
	}

	add(config.Sources.PRNewswire, sources.NewPRNewswire(options(config.Sources.PRNewswire)))
	add(config.Sources.Accesswire, sources.NewAccesswire(options(config.Sources.Accesswire)))
	add(config.Sources.GlobeNewswire, sources.NewGlobeNewswire(options(config.Sources.GlobeNewswire)))
	add(config.Sources.Finviz, sources.NewFinviz(options(config.Sources.Finviz)))

	return adapters
}
