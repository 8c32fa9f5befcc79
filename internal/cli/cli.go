package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-scout/internal/config"
	"github.com/pfrederiksen/event-scout/internal/detect"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/metrics"
	"github.com/pfrederiksen/event-scout/internal/scraper"
	"github.com/pfrederiksen/event-scout/internal/storage"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// exitError ends a command with a specific exit code and no error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// rootOptions holds the global flags and what PersistentPreRunE builds from them.
type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	log    *logger.Logger
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "event-scout",
		Short: "Find events on any web page and watch pages for new ones",
		Long: `A CLI tool that extracts events from arbitrary web pages.

It combines structured data, microdata, layout patterns, free text and
tables, scores each candidate, removes duplicates and sorts the result by
date. Pages can be tracked so that newly listed events are reported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to the config file")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Data directory for tracked URLs and notifications (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and debug logging")

	cmd.AddCommand(
		newExtractCmd(opts),
		newTrackCmd(opts),
		newMonitorCmd(opts),
		newNotificationsCmd(opts),
	)
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	o.in = cmd.InOrStdin()
	o.out = cmd.OutOrStdout()
	o.errOut = cmd.ErrOrStderr()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if o.dataDir != "" {
		cfg.Storage.Dir = o.dataDir
	}

	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.verbose {
		level = string(logger.LevelDebug)
	}
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.log = logger.New(lvl, o.errOut)
	logger.SetDefault(o.log)
	return nil
}

func (o *rootOptions) newFetcher() *scraper.CollyFetcher {
	return scraper.NewFetcher(scraper.FetchOptions{
		UserAgent: o.cfg.Fetch.UserAgent,
		Timeout:   o.cfg.Fetch.Timeout,
		Retries:   o.cfg.Fetch.Retries,
		Logger:    o.log,
	})
}

// newScraper wires a detection engine to f. f may be nil when only
// ScrapeHTML is used.
func (o *rootOptions) newScraper(f scraper.Fetcher, rec *metrics.Recorder) *scraper.Scraper {
	engine := detect.New(
		detect.WithMaxEvents(o.cfg.Detect.MaxEvents),
		detect.WithLogger(o.log),
	)
	return scraper.New(f, engine, scraper.WithMetrics(rec), scraper.WithLogger(o.log))
}

func (o *rootOptions) openStore() (storage.Store, error) {
	store, err := storage.Open(o.cfg.Storage.Backend, o.cfg.Storage.Dir, o.cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(NewRootCmd().ExecuteContext(ctx), os.Stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}
