package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"disk-indexer/internal/database"
	"disk-indexer/internal/logging"
	"disk-indexer/internal/startup"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// errNoDatabase is returned by read-only commands when the index has not
// been created yet.
var errNoDatabase = errors.New("no index database found")

type rootOptions struct {
	configFile string
	noColor    bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "diskscan",
		Short:         "Index and inspect disks",
		Long:          `diskscan indexes folders into the disk index and queries it, sharing the server's database and scan locks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
			if opts.verbose {
				logging.SetLevel(logging.LevelDebug)
			} else {
				logging.SetLevel(logging.LevelWarn)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is $CONFIG_FILE)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log database and scanner activity")

	cmd.AddCommand(newScanCmd(opts))
	cmd.AddCommand(newDisksCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// openDatabase loads configuration and opens the index. Read-only callers
// pass readOnly so that a missing database is reported instead of created
// and no migration runs.
func openDatabase(ctx context.Context, opts *rootOptions, readOnly bool) (*startup.Config, *database.Database, error) {
	cfg, err := startup.Load(opts.configFile)
	if err != nil {
		return nil, nil, err
	}

	if readOnly {
		if _, err := os.Stat(cfg.DatabasePath); err != nil {
			return nil, nil, fmt.Errorf("%w at %s (set DATABASE_DIR or run a scan first)", errNoDatabase, cfg.DatabasePath)
		}
	} else if err := startup.PrepareDirectories(cfg); err != nil {
		return nil, nil, err
	}

	db, err := database.New(ctx, cfg.DatabasePath, &database.Options{
		BusyTimeout:    cfg.DBBusyTimeout,
		SkipMigrations: readOnly || cfg.SkipMigrations,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, db, nil
}

func closeDatabase(db *database.Database) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := startup.GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "diskscan %s (commit: %s, built: %s, %s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion)
		},
	}
}
