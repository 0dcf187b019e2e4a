package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ytupload/internal/config"
	"ytupload/internal/discover"
	"ytupload/internal/hasher"
	"ytupload/internal/listing"
	"ytupload/internal/logging"
	"ytupload/internal/metrics"
	"ytupload/internal/storage"
	"ytupload/internal/upload"
	"ytupload/internal/uploader"
	"ytupload/internal/youtube"
)

const cutoffLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "upload":
		err = cmdUpload(args)
	case "playlists":
		err = cmdPlaylists(args)
	case "hash":
		err = cmdHash(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytupload - upload local videos to a YouTube playlist, skipping ones already uploaded

Usage:
  ytupload upload [flags]          Upload new videos from a directory
  ytupload playlists [flags]       List your playlists
  ytupload hash <file>...          Print (and cache) MD5 digests of files
  ytupload help                    Show this help message

Examples:
  ytupload upload --dir ~/Videos --playlist "Family 2023"
  ytupload upload --dir ~/Videos --playlist Family --creation-date-cutoff 2023-01-01
  ytupload upload --dir ~/Videos --playlist Family --dry-run

Configuration is read from ytupload.yaml (or ~/.config/ytupload/ytupload.yaml)
and YTUPLOAD_* environment variables, including a .env file.

For help on specific command: ytupload <command> -h
`)
}

// app holds what every command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	cache   *storage.Cache
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	cache := storage.NewCache(cfg.CachePath,
		storage.WithLockTimeout(cfg.LockTimeout),
		storage.WithLogger(logger))
	if err := cache.Load(); err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("load cache: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		cache:   cache,
	}, nil
}

// close flushes the cache and writes the metrics textfile.
func (a *app) close() {
	if err := a.cache.Flush(); err != nil {
		a.logger.Error("failed to flush the cache", zap.String("path", a.cache.Path()), zap.Error(err))
	}
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.logger.Warn("failed to write metrics", zap.String("path", a.cfg.MetricsFile), zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) client(ctx context.Context, insecure bool) (*youtube.Client, error) {
	httpClient, err := youtube.Authorize(ctx, youtube.AuthConfig{
		ClientSecretsFile:  a.cfg.ClientSecrets,
		CredentialsFile:    a.cfg.Credentials,
		InsecureSkipVerify: insecure,
		Interactive:        true,
		Prompt:             os.Stderr,
		Logger:             a.logger,
	})
	if err != nil {
		return nil, err
	}
	return youtube.NewClient(ctx, httpClient,
		youtube.WithLogger(a.logger),
		youtube.WithMetrics(a.metrics),
		youtube.WithRateLimit(a.cfg.APIRPS),
		youtube.WithChunkSize(a.cfg.ChunkSize))
}

func cmdUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	dir := fs.String("dir", "", "Directory to scan recursively for .mp4/.mov files (required)")
	playlist := fs.String("playlist", "", "Part of the target playlist title (required)")
	cutoffStr := fs.String("creation-date-cutoff", "", "Skip files created before this date (YYYY-MM-DD)")
	dryRun := fs.Bool("dry-run", false, "Hash and deduplicate without uploading")
	continueOnError := fs.Bool("continue-on-error", false, "Record failed files and keep going")
	insecure := fs.Bool("disable-ssl-validation", false, "Disable TLS certificate validation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytupload upload --dir <dir> --playlist <name> [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *dir == "" || *playlist == "" {
		fs.Usage()
		return errors.New("--dir and --playlist are required")
	}

	var cutoff time.Time
	if *cutoffStr != "" {
		t, err := time.ParseInLocation(cutoffLayout, *cutoffStr, time.Local)
		if err != nil {
			return fmt.Errorf("parse --creation-date-cutoff: %w (use YYYY-MM-DD)", err)
		}
		cutoff = t
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := a.client(ctx, *insecure)
	if err != nil {
		return err
	}

	orch := uploader.New(uploader.Config{
		TargetPlaylist:     *playlist,
		Privacy:            a.cfg.Privacy,
		ListingConcurrency: a.cfg.ListingConcurrency,
		ContinueOnError:    *continueOnError,
		DryRun:             *dryRun,
	}, uploader.Deps{
		Hasher:   hasher.New(a.cache, hasher.WithLogger(a.logger), hasher.WithMetrics(a.metrics)),
		Reader:   client,
		Uploader: client,
		Writer:   client,
		Listings: listing.New(a.cache, listing.WithLogger(a.logger), listing.WithMetrics(a.metrics)),
		Driver: upload.NewDriver(
			upload.WithBackoff(a.cfg.Backoff()),
			upload.WithLogger(a.logger),
			upload.WithMetrics(a.metrics)),
	}, uploader.WithLogger(a.logger), uploader.WithMetrics(a.metrics))

	if _, err := orch.LoadRemote(ctx); err != nil {
		return err
	}

	files, err := discover.Find(*dir, cutoff, discover.WithLogger(a.logger))
	if err != nil {
		return err
	}

	report, err := orch.Process(ctx, files)
	printReport(report)
	if youtube.IsQuotaExceeded(err) {
		fmt.Fprintln(os.Stderr, "\nThe daily YouTube API quota is used up; run again after it resets.")
	}
	return err
}

func printReport(r uploader.Report) {
	if r.Total() == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tVIDEO ID\tFILE")
	for _, group := range [][]uploader.Result{r.Uploaded, r.Skipped, r.Failed} {
		for _, res := range group {
			fmt.Fprintf(w, "%s\t%s\t%s\n", res.Status, res.VideoID, res.Path)
		}
	}
	w.Flush()

	fmt.Fprintf(os.Stderr, "\nTotal: %d files (%d uploaded, %d skipped, %d failed)\n",
		r.Total(), len(r.Uploaded), len(r.Skipped), len(r.Failed))
	for _, res := range r.Failed {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", res.Path, res.Err)
	}
}

func cmdPlaylists(args []string) error {
	fs := flag.NewFlagSet("playlists", flag.ExitOnError)
	insecure := fs.Bool("disable-ssl-validation", false, "Disable TLS certificate validation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytupload playlists [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := a.client(ctx, *insecure)
	if err != nil {
		return err
	}

	playlists, err := client.ListPlaylists(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		fmt.Println("No playlists found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYLIST ID\tITEMS\tTITLE")
	for _, p := range playlists {
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.ID, p.ItemCount, p.Title)
	}
	w.Flush()

	fmt.Fprintf(os.Stderr, "\nTotal: %d playlists\n", len(playlists))
	return nil
}

func cmdHash(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytupload hash <file>...\n")
	}
	fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		fs.Usage()
		return errors.New("missing file")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	h := hasher.New(a.cache, hasher.WithLogger(a.logger), hasher.WithMetrics(a.metrics))
	for _, p := range paths {
		f, err := discover.Stat(p)
		if err != nil {
			return err
		}
		sum, err := h.MD5(f.Path)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		fmt.Printf("%s  %s\n", sum, f.Path)
	}
	return nil
}
