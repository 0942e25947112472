package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"confronto/internal/amqp"
	"confronto/internal/backend"
	"confronto/internal/chart"
	"confronto/internal/cli"
	"confronto/internal/config"
	"confronto/internal/core"
	"confronto/internal/log"
	"confronto/internal/services"
	"confronto/internal/storage"
)

const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalidInput = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, core.ErrInvalidInput):
		return exitInvalidInput
	default:
		return exitFailure
	}
}

type options struct {
	date    string
	envFile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "confronto",
		Short: "Compare this month's spending with last month's",
		Long: `confronto sums spending from the start of the month up to a reference day,
compares it with the previous month up to the equivalent day, prints a one
line summary and writes a cumulative spending chart to OUTPUT_DIR.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return compare(cmd.Context(), opts, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&opts.date, "date", "d", "", "reference date (YYYY-MM-DD), defaults to today")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file to load")

	root.AddCommand(
		&cobra.Command{
			Use:   "sync",
			Short: "Mirror last month and this month from SYNC_SOURCE into SQLite",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return syncMirror(cmd.Context(), opts, stdout, stderr)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the SQLite mirror's size and last sync",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return mirrorStatus(cmd.Context(), opts, stdout, stderr)
			},
		},
		&cobra.Command{
			Use:   "enqueue",
			Short: "Queue a comparison for confronto-worker",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return enqueue(cmd.Context(), opts, stdout, stderr)
			},
		},
	)
	return root
}

// referenceDate parses --date; empty means today.
func referenceDate(s string) (core.Date, error) {
	if s == "" {
		return core.Today(), nil
	}
	return core.ParseDate(s)
}

func setup(opts *options, stderr io.Writer) (*config.Config, *log.Logger, error) {
	if err := cli.LoadEnvFile(opts.envFile); err != nil {
		return nil, nil, fmt.Errorf("load env file: %w", err)
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	// stdout carries only the summary.
	return cfg, cli.SetupLogger(cfg, log.ComponentCLI, stderr), nil
}

func openSource(ctx context.Context, cfg *config.Config, logger *log.Logger, name string, cached bool) (*backend.Result, error) {
	bcfg, err := backend.FromAppConfig(cfg, name)
	if err != nil {
		return nil, err
	}
	if !cached {
		bcfg.CacheSize = 0
	}
	return backend.NewFactory(logger.Logger, nil).CreateSource(ctx, bcfg)
}

func compare(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	ref, err := referenceDate(opts.date)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(opts, stderr)
	if err != nil {
		return err
	}

	// A one-shot run fetches each range once; a cache would never hit.
	src, err := openSource(ctx, cfg, logger, cfg.DataSource, false)
	if err != nil {
		return err
	}
	defer src.Close()

	rep, err := services.NewComparisonService(src.Source, cfg.Currency).Run(ctx, ref)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, rep.Summary)

	path, err := chart.Render(rep, cfg.OutputDir)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Chart written",
		log.FieldRunID, rep.RunID.String(),
		log.FieldPath, path)
	return nil
}

func syncMirror(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	ref, err := referenceDate(opts.date)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(opts, stderr)
	if err != nil {
		return err
	}

	upstream, err := openSource(ctx, cfg, logger, cfg.SyncSource, false)
	if err != nil {
		return err
	}
	defer upstream.Close()

	mirror, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer mirror.Close()

	syncRun, err := services.NewSyncService(upstream.Source, mirror).Sync(ctx, ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Mirrored %d transactions from %s for %s to %s\n",
		syncRun.Stored, cfg.SyncSource, syncRun.Start, syncRun.End)
	return nil
}

func mirrorStatus(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	cfg, _, err := setup(opts, stderr)
	if err != nil {
		return err
	}
	mirror, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer mirror.Close()

	n, err := mirror.Count(ctx)
	if err != nil {
		return err
	}
	last, err := mirror.LastSync(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Mirror %s holds %d transactions\n", cfg.SQLiteDBPath, n)
	if last == nil {
		fmt.Fprintln(stdout, "Never synced")
		return nil
	}
	fmt.Fprintf(stdout, "Last sync %s: %s to %s, %d stored\n",
		last.FinishedAt.Local().Format(time.DateTime), last.Start, last.End, last.Stored)
	return nil
}

func enqueue(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	// Without --date the worker compares against its own today.
	var ref core.Date
	if opts.date != "" {
		var err error
		if ref, err = core.ParseDate(opts.date); err != nil {
			return err
		}
	}
	cfg, logger, err := setup(opts, stderr)
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is not set")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	req := amqp.NewComparisonRequest(ref)
	if err := client.PublishComparisonRequest(ctx, req); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Comparison request queued", log.FieldRequestID, req.ID.String())
	fmt.Fprintln(stdout, req.ID.String())
	return nil
}
