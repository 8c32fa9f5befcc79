package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/export"
	"github.com/pfrederiksen/event-scout/internal/filter"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/scraper"
)

type extractOptions struct {
	file         string
	baseURL      string
	format       string
	sortBy       string
	maxEvents    int
	exportPath   string
	exportFormat string
	upload       bool

	dates         string
	keywords      []string
	locations     []string
	sources       []string
	minConfidence string
	weekendsOnly  bool
	datedOnly     bool
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [URL]",
		Short: "Extract events from a web page",
		Long: `Fetch a page (or read a saved one with --file) and list the events on it.

An empty result is not an error. Use --export to save the events as an
Excel workbook, CSV or iCalendar file, and --s3 to upload that file.`,
		Example: `  event-scout extract https://example.org/events
  event-scout extract --file page.html --base-url https://example.org/ --format json
  event-scout extract https://example.org/events --export events.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), root, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Read HTML from a file instead of fetching ('-' for stdin)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL for resolving links when using --file")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "date", "Sort order: date, name or confidence")
	cmd.Flags().IntVar(&opts.maxEvents, "max-events", 0, "Maximum number of events (overrides config)")
	cmd.Flags().StringVar(&opts.exportPath, "export", "", "Export events to this file or directory")
	cmd.Flags().StringVar(&opts.exportFormat, "export-format", "xlsx", "Export format when --export is a directory or with --s3: xlsx, csv or ics")
	cmd.Flags().BoolVar(&opts.upload, "s3", false, "Upload the export to the configured S3 bucket")

	cmd.Flags().StringVar(&opts.dates, "dates", "", "Only events in this range (e.g. 'Mar 1-15', 'March', '2025-03-01..2025-03-15')")
	cmd.Flags().StringSliceVar(&opts.keywords, "keyword", nil, "Only events whose name or description contains a keyword (repeatable)")
	cmd.Flags().StringSliceVar(&opts.locations, "location", nil, "Only events whose location contains this text (repeatable)")
	cmd.Flags().StringSliceVar(&opts.sources, "source", nil, "Only events found by this detection source (repeatable)")
	cmd.Flags().StringVar(&opts.minConfidence, "min-confidence", "", "Only events with at least this confidence: low, medium or high")
	cmd.Flags().BoolVar(&opts.weekendsOnly, "weekends", false, "Only events on a Saturday or Sunday")
	cmd.Flags().BoolVar(&opts.datedOnly, "dated", false, "Only events with a calendar date")

	return cmd
}

func runExtract(ctx context.Context, root *rootOptions, opts *extractOptions, args []string) error {
	format, err := parseOutputFormat(opts.format)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(opts.sortBy)
	if err != nil {
		return err
	}
	f, err := opts.buildFilter(time.Now())
	if err != nil {
		return err
	}
	if opts.maxEvents > 0 {
		root.cfg.Detect.MaxEvents = opts.maxEvents
	}

	report, err := opts.scrape(ctx, root, args)
	if err != nil {
		return err
	}
	if !f.IsEmpty() {
		report.Events = f.Apply(report.Events)
		report.Count = len(report.Events)
		root.log.Debug("Filter applied", logger.Fields{"filter": f.String(), "remaining": report.Count})
	}
	sortEvents(report.Events, order)

	if err := WriteReport(root.out, report, format, root.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.exportPath != "" || opts.upload {
		return opts.export(ctx, root, report)
	}
	return nil
}

func (o *extractOptions) buildFilter(now time.Time) (*filter.Filter, error) {
	f := filter.NewFilter()
	if o.dates != "" {
		from, to, err := filter.ParseDateRange(o.dates, now)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}
	if o.minConfidence != "" {
		c, err := filter.ParseConfidence(o.minConfidence)
		if err != nil {
			return nil, err
		}
		f.MinConfidence = c
	}
	f.Keywords = o.keywords
	f.Locations = o.locations
	for _, s := range o.sources {
		f.Sources = append(f.Sources, event.Source(s))
	}
	f.WeekendsOnly = o.weekendsOnly
	f.DatedOnly = o.datedOnly
	return f, nil
}

func (o *extractOptions) scrape(ctx context.Context, root *rootOptions, args []string) (*scraper.Report, error) {
	switch {
	case o.file != "" && len(args) > 0:
		return nil, errors.New("pass either a URL or --file, not both")
	case o.file != "":
		html, err := readHTML(o.file, root.in)
		if err != nil {
			return nil, err
		}
		return root.newScraper(nil, nil).ScrapeHTML(html, o.baseURL)
	case len(args) == 1:
		if err := scraper.ValidateURL(args[0]); err != nil {
			return nil, err
		}
		fetcher := root.newFetcher()
		defer fetcher.Close()
		return root.newScraper(fetcher, nil).Scrape(ctx, args[0])
	default:
		return nil, errors.New("a URL or --file is required")
	}
}

func readHTML(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// export writes and optionally uploads the report's events. A path with a
// known extension decides the format; a directory gets the default file name.
func (o *extractOptions) export(ctx context.Context, root *rootOptions, report *scraper.Report) error {
	now := time.Now()

	format, err := export.ParseFormat(o.exportFormat)
	if err != nil {
		return err
	}
	name := export.DefaultFileName(format, now)
	path := o.exportPath
	if path != "" {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, name)
		} else {
			if format, err = export.ParseFormat(path); err != nil {
				return err
			}
			name = filepath.Base(path)
		}
	}

	data, err := export.Render(format, report.Events, now)
	if errors.Is(err, export.ErrNoEvents) {
		fmt.Fprintf(root.errOut, "Nothing to export: %v\n", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("exporting events: %w", err)
	}

	if path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(root.errOut, "Exported %d events to %s\n", report.Count, path)
	}

	if o.upload {
		uploader, err := export.NewS3Uploader(ctx, export.S3Config{
			Bucket: root.cfg.Export.S3Bucket,
			Region: root.cfg.Export.S3Region,
			Prefix: root.cfg.Export.S3Prefix,
		})
		if err != nil {
			return err
		}
		res, err := uploader.Upload(ctx, name, data, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(root.errOut, "Uploaded %s (%d bytes)\n", res.Location, res.Size)
	}
	return nil
}
