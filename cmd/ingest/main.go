// Package main provides a CLI tool that posts feedback rows from a CSV file to the API.
//
// The CSV must have a header row with a text column. stakeholder_type, sector and
// language columns are optional; other columns are ignored.
//
// Usage:
//
//	go run ./cmd/ingest --file feedback.csv --api-url http://localhost:8080 --api-key YOUR_API_KEY
//
// API_URL and API_KEY are read from the environment (or .env) when the flags are omitted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/RonitKhanna333/sih-final-2/internal/observability"
	"github.com/RonitKhanna333/sih-final-2/pkg/apiclient"
)

type options struct {
	file     string
	apiURL   string
	apiKey   string
	rate     float64
	dryRun   bool
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "ingest",
		Short:        "Post feedback rows from a CSV file to the policy feedback API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.resolve()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Path to the CSV file (required)")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "API base URL (default $API_URL or "+apiclient.DefaultBaseURL+")")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key (default $API_KEY)")
	cmd.Flags().Float64Var(&opts.rate, "rate", 10, "Maximum requests per second")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse the CSV but do not call the API")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// resolve fills unset flags from the environment.
func (o *options) resolve() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	if o.apiURL == "" {
		o.apiURL = os.Getenv("API_URL")
	}

	if o.apiKey == "" {
		o.apiKey = os.Getenv("API_KEY")
	}

	if o.apiKey == "" && !o.dryRun {
		return errors.New("--api-key or API_KEY is required")
	}

	if o.rate <= 0 {
		return errors.New("--rate must be positive")
	}

	return nil
}

func run(ctx context.Context, opts *options) error {
	slog.SetDefault(observability.NewLogger(os.Stderr, opts.logLevel))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, skipped, err := readRows(f)
	if err != nil {
		return err
	}

	slog.Info("Parsed CSV", "file", opts.file, "rows", len(rows), "skipped", skipped, "dry_run", opts.dryRun)

	var poster feedbackPoster
	if !opts.dryRun {
		poster = apiclient.NewClient(opts.apiURL, opts.apiKey)
	}

	stats := ingest(ctx, poster, rate.NewLimiter(rate.Limit(opts.rate), 1), rows)
	stats.Skipped += skipped

	fmt.Println()
	fmt.Println("Ingestion Summary")
	fmt.Println("=================")
	fmt.Printf("Rows read:  %d\n", len(rows)+skipped)
	fmt.Printf("Skipped:    %d\n", stats.Skipped)
	fmt.Printf("Created:    %d\n", stats.Created)
	fmt.Printf("Failed:     %d\n", stats.Failed)
	fmt.Println()

	if stats.Failed > 0 {
		return fmt.Errorf("%d rows failed", stats.Failed)
	}

	return ctx.Err()
}
