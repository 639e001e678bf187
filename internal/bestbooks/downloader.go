package bestbooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"bookshelf/internal/logging"
	"bookshelf/internal/services"
)

// Downloader materializes yearly listings into the local library.
type Downloader struct {
	client   *Client
	library  *Library
	out      io.Writer
	progress bool
	logger   *slog.Logger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithOutput redirects user-facing download messages.
func WithOutput(w io.Writer) DownloaderOption {
	return func(d *Downloader) {
		if w != nil {
			d.out = w
		}
	}
}

// WithProgress toggles the terminal progress bar for bulk downloads.
func WithProgress(enabled bool) DownloaderOption {
	return func(d *Downloader) {
		d.progress = enabled
	}
}

// WithLogger attaches a logger for download diagnostics.
func WithLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logging.NewComponentLogger(logger, "bestbooks")
		}
	}
}

// NewDownloader wires a client and library together.
func NewDownloader(client *Client, library *Library, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:  client,
		library: library,
		out:     os.Stdout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeedYears downloads every listed year, replacing any local copy. Fetch
// failures are reported per year and skipped; local write failures abort.
func (d *Downloader) SeedYears(ctx context.Context, years []int) error {
	if len(years) == 0 {
		fmt.Fprintln(d.out, "No years to download.")
		return nil
	}

	bar := d.newBar(len(years))
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		if bar != nil {
			bar.Describe(fmt.Sprintf("Downloading %d", year))
		} else {
			fmt.Fprintf(d.out, "Downloading %d ...\n", year)
		}

		yearCtx := services.WithYear(ctx, year)
		payload, err := d.client.FetchYear(yearCtx, year)
		if err != nil {
			d.printf(bar, "Failed to download %d: %v\n", year, err)
			logging.WithContext(yearCtx, d.logger).Warn("listing download failed", logging.Error(err))
			d.advance(bar)
			continue
		}
		path, err := d.library.SaveListing(year, payload)
		if err != nil {
			d.finish(bar)
			return err
		}
		d.printf(bar, "Saved %d to %s\n", year, path)
		d.advance(bar)
	}
	d.finish(bar)
	return nil
}

// EnsureYears downloads only the listings not already present locally.
func (d *Downloader) EnsureYears(ctx context.Context, years []int) error {
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.library.HasYear(year) {
			continue
		}
		fmt.Fprintf(d.out, "Downloading %d ...\n", year)
		yearCtx := services.WithYear(ctx, year)
		payload, err := d.client.FetchYear(yearCtx, year)
		if err != nil {
			fmt.Fprintf(d.out, "Failed to download %d: %v\n", year, err)
			logging.WithContext(yearCtx, d.logger).Warn("listing download failed", logging.Error(err))
			continue
		}
		path, err := d.library.SaveListing(year, payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.out, "Saved %d to %s\n", year, path)
	}
	return nil
}

func (d *Downloader) newBar(total int) *progressbar.ProgressBar {
	if !d.progress {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Downloading listings"),
		progressbar.OptionSetWriter(d.out),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (d *Downloader) printf(bar *progressbar.ProgressBar, format string, args ...any) {
	if bar != nil {
		_, _ = progressbar.Bprintf(bar, format, args...)
		return
	}
	fmt.Fprintf(d.out, format, args...)
}

func (d *Downloader) advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}

func (d *Downloader) finish(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
