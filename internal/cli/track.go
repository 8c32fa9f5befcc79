package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/monitor"
	"github.com/pfrederiksen/event-scout/internal/scraper"
	"github.com/pfrederiksen/event-scout/internal/storage"
)

func newTrackCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Manage the URLs watched by the monitor",
	}
	cmd.AddCommand(
		newTrackAddCmd(root),
		newTrackListCmd(root),
		newTrackRemoveCmd(root),
		newTrackActiveCmd(root, "pause", false),
		newTrackActiveCmd(root, "resume", true),
	)
	return cmd
}

func newTrackAddCmd(root *rootOptions) *cobra.Command {
	var (
		name   string
		noScan bool
	)

	cmd := &cobra.Command{
		Use:   "add URL",
		Short: "Track a URL for new events",
		Long: `Start tracking a URL. The page is scanned once right away so that only
events listed afterwards are reported; use --no-scan to skip that and have
the first monitor check report everything on the page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(root, func(store storage.Store) error {
				return runTrackAdd(cmd.Context(), root, store, args[0], name, noScan)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name for the URL")
	cmd.Flags().BoolVar(&noScan, "no-scan", false, "Skip the initial scan")
	return cmd
}

func runTrackAdd(ctx context.Context, root *rootOptions, store storage.Store, rawURL, name string, noScan bool) error {
	if err := scraper.ValidateURL(rawURL); err != nil {
		return err
	}
	tracked, err := store.AddTracked(ctx, rawURL, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(root.out, "Tracking %s (ID: %s)\n", tracked.DisplayName(), tracked.ID)
	if noScan {
		return nil
	}

	fetcher := root.newFetcher()
	defer fetcher.Close()
	mon := monitor.New(store, root.newScraper(fetcher, nil), monitor.Options{Logger: root.log})

	count, err := mon.Baseline(ctx, tracked.ID)
	if err != nil {
		// The URL stays tracked; the next check will report every event it finds.
		root.log.Warn("Initial scan failed", logger.Fields{"url": rawURL, "error": err.Error()})
		fmt.Fprintln(root.out, "Initial scan failed; the first monitor check will report all events.")
		return nil
	}
	fmt.Fprintf(root.out, "Initial scan found %d events\n", count)
	return nil
}

func newTrackListCmd(root *rootOptions) *cobra.Command {
	var (
		format     string
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseOutputFormat(format)
			if err != nil {
				return err
			}
			return withStore(root, func(store storage.Store) error {
				tracked, err := store.ListTracked(cmd.Context(), activeOnly)
				if err != nil {
					return err
				}
				return WriteTracked(root.out, tracked, f)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list URLs that are not paused")
	return cmd
}

func newTrackRemoveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Stop tracking a URL",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(root, func(store storage.Store) error {
				if err := store.RemoveTracked(cmd.Context(), args[0]); err != nil {
					return notFound(err, args[0])
				}
				fmt.Fprintf(root.out, "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newTrackActiveCmd(root *rootOptions, verb string, active bool) *cobra.Command {
	short := "Pause monitoring of a tracked URL"
	done := "Paused"
	if active {
		short = "Resume monitoring of a tracked URL"
		done = "Resumed"
	}

	return &cobra.Command{
		Use:   verb + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(root, func(store storage.Store) error {
				if err := store.SetActive(cmd.Context(), args[0], active); err != nil {
					return notFound(err, args[0])
				}
				fmt.Fprintf(root.out, "%s %s\n", done, args[0])
				return nil
			})
		},
	}
}

// withStore opens the configured store for the duration of fn.
func withStore(root *rootOptions, fn func(storage.Store) error) error {
	store, err := root.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func notFound(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no tracked URL or notification with ID %s", id)
	}
	return err
}
