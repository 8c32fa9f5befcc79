package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/metrics"
	"github.com/pfrederiksen/event-scout/internal/monitor"
	"github.com/pfrederiksen/event-scout/internal/notifier"
	"github.com/pfrederiksen/event-scout/internal/storage"
)

type monitorOptions struct {
	once        bool
	interval    time.Duration
	delay       time.Duration
	concurrency int
	dryRun      bool
	metricsAddr string
	format      string
}

func newMonitorCmd(root *rootOptions) *cobra.Command {
	opts := &monitorOptions{}

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Check tracked URLs for new events",
		Long: `Check every active tracked URL and record a notification whenever a page
lists more events than at its previous check.

Without --once the check repeats every --interval until interrupted. With
--once the command exits with status 2 when new events were found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd.Context(), root, opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single check cycle and exit")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Time between check cycles (overrides config)")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "Minimum gap between two page fetches (overrides config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Pages checked in parallel (overrides config)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print notifications instead of posting them")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Summary format with --once: text or json")

	return cmd
}

func runMonitor(ctx context.Context, root *rootOptions, opts *monitorOptions, cmd *cobra.Command) error {
	format, err := parseOutputFormat(opts.format)
	if err != nil {
		return err
	}

	cfg := root.cfg.Monitor
	if opts.interval > 0 {
		cfg.Interval = opts.interval
	}
	if cmd.Flags().Changed("delay") {
		cfg.Delay = opts.delay
	}
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}
	addr := root.cfg.Metrics.Addr
	if opts.metricsAddr != "" {
		addr = opts.metricsAddr
	}

	notifiers, err := buildNotifiers(root, opts.dryRun)
	if err != nil {
		return err
	}

	rec := metrics.New()
	if addr != "" {
		srv := rec.Server(addr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				root.log.Error("Metrics server failed", logger.Fields{"addr": addr}, err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		root.log.Info("Serving metrics", logger.Fields{"addr": addr})
	}

	return withStore(root, func(store storage.Store) error {
		fetcher := root.newFetcher()
		defer fetcher.Close()

		mon := monitor.New(store, root.newScraper(fetcher, rec), monitor.Options{
			Interval:    cfg.Interval,
			Delay:       cfg.Delay,
			Concurrency: cfg.Concurrency,
			Notifiers:   notifiers,
			Metrics:     rec,
			Logger:      root.log,
		})

		if !opts.once {
			return mon.Run(ctx)
		}

		summary, err := mon.CheckAll(ctx)
		if err != nil {
			return err
		}
		if err := WriteSummary(root.out, summary, format); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		if summary.Notifications > 0 {
			return &exitError{code: ExitNewEvents}
		}
		return nil
	})
}

func buildNotifiers(root *rootOptions, dryRun bool) ([]notifier.Notifier, error) {
	if dryRun {
		return []notifier.Notifier{notifier.NewDryRunNotifier(root.out)}, nil
	}

	var notifiers []notifier.Notifier
	if tw := root.cfg.Notify.Twitter; tw.Enabled {
		n, err := notifier.NewTwitterNotifier(notifier.Credentials{
			APIKey:       tw.APIKey,
			APISecret:    tw.APISecret,
			AccessToken:  tw.AccessToken,
			AccessSecret: tw.AccessSecret,
		})
		if err != nil {
			return nil, fmt.Errorf("creating Twitter notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	if tg := root.cfg.Notify.Telegram; tg.Enabled {
		n, err := notifier.NewTelegramNotifier(tg.BotToken, tg.ChatID)
		if err != nil {
			return nil, fmt.Errorf("creating Telegram notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}
