package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aluiziolira/go-race-watch/config"
	"github.com/aluiziolira/go-race-watch/fetch"
	"github.com/aluiziolira/go-race-watch/guide"
	"github.com/aluiziolira/go-race-watch/models"
	"github.com/aluiziolira/go-race-watch/notify"
	"github.com/aluiziolira/go-race-watch/pipeline"
	"github.com/aluiziolira/go-race-watch/racecard"
	"github.com/aluiziolira/go-race-watch/store"
	"github.com/aluiziolira/go-race-watch/store/mssql"
	"github.com/aluiziolira/go-race-watch/watch"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	tomorrow := flag.Bool("tomorrow", false, "Scrape tomorrow's guide instead of today's")
	watchlistFlag := flag.String("watchlist", "", "Comma-separated watchlist terms (overrides config)")
	outputFile := flag.String("output", "", "Output file path")
	outputFormat := flag.String("format", "", "Output format: csv, json, or dual")
	timeoutSec := flag.Int("timeout", 0, "Request timeout (seconds)")
	maxRetries := flag.Int("max-retries", -1, "Maximum retry attempts per URL")
	delayMs := flag.Int("delay", -1, "Delay after each successful request (milliseconds)")
	retryBackoffMs := flag.Int("retry-backoff", 0, "Initial retry backoff (milliseconds)")
	retryBackoffMaxMs := flag.Int("retry-backoff-max", 0, "Maximum retry backoff (milliseconds)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	logFile := flag.String("log-file", "", "Rotating log file path (in addition to stdout)")
	sendEmail := flag.Bool("send-email", false, "Send the match report by email")
	persist := flag.Bool("store", false, "Persist matches to the configured SQL store")
	searchQuery := flag.String("search", "", "Search stored matches by keyword and exit")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, flagOverrides{
		tomorrow:          *tomorrow,
		watchlist:         *watchlistFlag,
		outputFile:        *outputFile,
		outputFormat:      *outputFormat,
		timeoutSec:        *timeoutSec,
		maxRetries:        *maxRetries,
		delayMs:           *delayMs,
		retryBackoffMs:    *retryBackoffMs,
		retryBackoffMaxMs: *retryBackoffMaxMs,
		metricsAddr:       *metricsAddr,
		logFile:           *logFile,
		verbose:           *verbose,
	})
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, level := newLogger(cfg.Verbose, cfg.LogFile)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *searchQuery != "" {
		if cfg.Store.DSN == "" {
			fmt.Fprintln(os.Stderr, "search requires a store DSN (STORE_DSN or config file)")
			os.Exit(1)
		}
		repo, err := mssql.NewRepository(cfg.Store.DSN, cfg.Store.Table, cfg.Store.CommandTimeout)
		if err != nil {
			slog.Error("opening store failed", slog.Any("error", err))
			os.Exit(1)
		}
		searchErr := runSearch(ctx, os.Stdout, repo, *searchQuery)
		if err := repo.Close(); err != nil {
			slog.Error("close repository", slog.Any("error", err))
		}
		if searchErr != nil {
			slog.Error("search failed", slog.Any("error", searchErr))
			os.Exit(1)
		}
		return
	}

	metrics := fetch.NewMetrics()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	report, records := run(cfg, metrics)

	if err := writeOutput(ctx, cfg, records); err != nil {
		slog.Error("writing output failed", slog.Any("error", err))
		os.Exit(1)
	}

	if *persist && cfg.Store.DSN != "" {
		repo, err := mssql.NewRepository(cfg.Store.DSN, cfg.Store.Table, cfg.Store.CommandTimeout)
		if err != nil {
			slog.Error("opening store failed", slog.Any("error", err))
		} else {
			if err := persistMatches(ctx, repo, records); err != nil {
				slog.Error("persisting matches failed", slog.Any("error", err))
			}
			if err := repo.Close(); err != nil {
				slog.Error("close repository", slog.Any("error", err))
			}
		}
	}

	if *sendEmail {
		service := notify.NewSMTPService(cfg.SMTP)
		if !service.Configured() {
			slog.Warn("email credentials not configured, skipping notification")
		} else if err := sendReport(service, cfg.SMTP.Recipient, records); err != nil {
			slog.Error("sending report failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(report, cfg.OutputFile)
}

// run executes the full scrape. A listing failure yields an empty report
// rather than an abort: a scheduled job never crashes over one bad page.
func run(cfg *config.Config, metrics *fetch.Metrics) (*models.RunReport, []*models.MatchRecord) {
	report := &models.RunReport{StartTime: time.Now()}

	client, err := fetch.NewClient(cfg, metrics)
	if err != nil {
		slog.Error("initialising fetch client", slog.Any("error", err))
		report.EndTime = time.Now()
		return report, nil
	}

	guideURL := cfg.GuideURL()
	slog.Info("fetching guide",
		slog.String("url", guideURL),
		slog.Int("watchlist_terms", len(cfg.Watchlist)),
	)

	var records []*models.MatchRecord
	doc, err := client.Document(guideURL)
	if err != nil {
		slog.Error("guide fetch failed, returning empty result", slog.Any("error", err))
	} else {
		entries := guide.NewParser(cfg.SiteRoot).Parse(doc)
		report.EntryCount = len(entries)
		slog.Info("guide parsed", slog.Int("entries", len(entries)))

		resolver := racecard.NewResolver(client, cfg.SiteRoot)
		builder, err := watch.NewBuilder(client, resolver, cfg.Watchlist, cfg.DetailCacheSize, metrics)
		if err != nil {
			slog.Error("initialising builder", slog.Any("error", err))
		} else {
			records = builder.Build(entries)
		}
	}

	stats := client.Snapshot()
	report.EndTime = time.Now()
	report.MatchCount = len(records)
	report.RequestCount = stats.RequestCount
	report.ErrorCount = stats.ErrorCount
	report.RetryCount = stats.RetryCount
	report.FailedURLs = stats.FailedURLs
	report.ErrorsByType = stats.ErrorsByType
	for _, record := range records {
		if record.Degraded() {
			report.DegradedCount++
		}
	}
	return report, records
}

func writeOutput(ctx context.Context, cfg *config.Config, records []*models.MatchRecord) error {
	writer, err := createWriter(cfg.OutputFormat, pipeline.DatedFilename(cfg.OutputFile, time.Now()))
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	p := pipeline.NewPipeline(ctx, writer, cfg)
	p.Start(1)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}
	if err := p.Process(records); err != nil {
		return fmt.Errorf("processing records: %w", err)
	}
	if err := p.Close(); err != nil {
		return fmt.Errorf("pipeline shutdown: %w", err)
	}
	if len(records) > 0 {
		if err := writer.Validate(); err != nil {
			return fmt.Errorf("output validation: %w", err)
		}
	}
	return nil
}

func persistMatches(ctx context.Context, repo store.Repository, records []*models.MatchRecord) error {
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, record := range records {
		row := &store.StoredMatch{
			Horse:        record.Entry.Horse,
			Race:         record.Entry.Race,
			Day:          record.Entry.Day,
			Odds:         record.Odds,
			Draw:         record.Draw,
			Jockey:       record.Jockey,
			Trainer:      record.Trainer,
			Commentary:   record.Commentary,
			MatchedTerms: strings.Join(record.MatchedTerms, ", "),
			ScrapedAt:    record.Entry.ScrapedAt,
		}
		inserted, err := repo.UpsertMatch(ctx, row, record.Entry.HorseURL, record.Entry.RaceURL)
		if err != nil {
			return err
		}
		slog.Debug("match persisted",
			slog.String("horse", record.Entry.Horse),
			slog.Bool("inserted", inserted),
		)
	}
	return nil
}

func sendReport(service notify.Service, recipient string, records []*models.MatchRecord) error {
	if len(records) == 0 {
		slog.Info("no watchlist matches, skipping email")
		return nil
	}

	now := time.Now()
	body, err := notify.BuildReport(records, now)
	if err != nil {
		return err
	}
	if err := service.Send(notify.Subject(len(records), now), body); err != nil {
		return err
	}
	slog.Info("report sent", slog.String("recipient", recipient))
	return nil
}

func runSearch(ctx context.Context, out io.Writer, repo store.Repository, query string) error {
	rows, err := repo.Search(ctx, query, 20)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No stored matches found.")
		return nil
	}
	for _, row := range rows {
		fmt.Fprintf(out, "[%d] %s | %s | %s | J: %s T: %s (%s)\n  %s\n",
			row.MatchCount, row.Horse, row.Race, row.Odds,
			row.Jockey, row.Trainer, row.Draw, row.Commentary)
	}
	return nil
}

type flagOverrides struct {
	tomorrow          bool
	watchlist         string
	outputFile        string
	outputFormat      string
	timeoutSec        int
	maxRetries        int
	delayMs           int
	retryBackoffMs    int
	retryBackoffMaxMs int
	metricsAddr       string
	logFile           string
	verbose           bool
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFile(path)
}

func applyFlags(cfg *config.Config, f flagOverrides) {
	if f.tomorrow {
		cfg.UseTomorrow = true
	}
	if f.watchlist != "" {
		var terms []string
		for _, term := range strings.Split(f.watchlist, ",") {
			if term = strings.TrimSpace(term); term != "" {
				terms = append(terms, term)
			}
		}
		cfg.Watchlist = terms
	}
	if f.outputFile != "" {
		cfg.OutputFile = f.outputFile
	}
	if f.outputFormat != "" {
		cfg.OutputFormat = strings.ToLower(f.outputFormat)
	}
	if f.timeoutSec > 0 {
		cfg.Timeout = time.Duration(f.timeoutSec) * time.Second
	}
	if f.maxRetries >= 0 {
		cfg.MaxRetries = f.maxRetries
	}
	if f.delayMs >= 0 {
		cfg.Delay = time.Duration(f.delayMs) * time.Millisecond
	}
	if f.retryBackoffMs > 0 {
		cfg.RetryBackoff = time.Duration(f.retryBackoffMs) * time.Millisecond
	}
	if f.retryBackoffMaxMs > 0 {
		cfg.RetryBackoffMax = time.Duration(f.retryBackoffMaxMs) * time.Millisecond
	}
	if f.metricsAddr != "" {
		cfg.MetricsAddr = f.metricsAddr
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}
	if f.verbose {
		cfg.Verbose = true
	}
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(report *models.RunReport, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Run complete")
	fmt.Printf("  Entries:       %d\n", report.EntryCount)
	fmt.Printf("  Matches:       %d\n", report.MatchCount)
	fmt.Printf("  Degraded:      %d\n", report.DegradedCount)
	fmt.Printf("  Requests:      %d\n", report.RequestCount)
	fmt.Printf("  Errors:        %d\n", report.ErrorCount)
	fmt.Printf("  Retries:       %d\n", report.RetryCount)
	if len(report.FailedURLs) > 0 {
		fmt.Printf("  Failed URLs:   %d\n", len(report.FailedURLs))
	}
	if len(report.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", report.ErrorsByType)
	}
	fmt.Printf("  Duration:      %v\n", report.EndTime.Sub(report.StartTime).Round(time.Millisecond))
	fmt.Printf("  Output file:   %s\n", pipeline.DatedFilename(outputFile, report.StartTime))
	fmt.Println(separator)
}

func newLogger(verbose bool, logFile string) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	var out io.Writer = os.Stdout
	if logFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if logFile == "" && isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
