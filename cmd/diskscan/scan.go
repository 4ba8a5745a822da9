package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"disk-indexer/internal/database"
	"disk-indexer/internal/scanner"
	"disk-indexer/internal/startup"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// progressInterval is how often the live progress line is redrawn.
const progressInterval = 250 * time.Millisecond

func newScanCmd(opts *rootOptions) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "scan <disk> <folder>",
		Short: "Index a folder as a disk and wait for the result",
		Long: `Index folder under the given disk name, replacing the disk's previous records.
The command waits for the scan to finish. Interrupting it cancels the scan and
records the cancellation in the disk's state.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := openDatabase(ctx, opts, false)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			if cmd.Flags().Changed("batch-size") {
				cfg.ScanBatchSize = batchSize
			}

			out := cmd.OutOrStdout()
			live := isTerminal(out)
			res, err := runScan(ctx, db, cfg, args[0], args[1], out, live)
			printResult(out, res, err)
			return err
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", scanner.DefaultBatchSize, "records per database flush")
	return cmd
}

// runScan starts the scan through a Manager so that the per-disk lock files
// shared with the server are honored, then waits for it. Cancelling ctx
// cancels the scan. With live set, the disk's state is polled and redrawn.
func runScan(ctx context.Context, db *database.Database, cfg *startup.Config, disk, folder string, out io.Writer, live bool) (scanner.Result, error) {
	scans := scanner.NewManager(
		scanner.New(db, scanner.Config{BatchSize: cfg.ScanBatchSize}),
		scanner.ManagerConfig{LockDir: cfg.LockDir, Concurrency: 1},
	)
	defer func() {
		_ = scans.Shutdown(context.Background())
	}()

	h, err := scans.Start(disk, folder)
	if err != nil {
		return scanner.Result{Disk: disk, Root: folder}, err
	}

	var ticks <-chan time.Time
	if live {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	interrupted := ctx.Done()
	for {
		select {
		case <-h.Done():
			if live {
				fmt.Fprint(out, "\r\033[K")
			}
			return h.Result()
		case <-interrupted:
			interrupted = nil
			h.Cancel()
		case <-ticks:
			state, err := db.GetDisk(context.WithoutCancel(ctx), h.Disk)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "\r\033[K%s", progressLine(state))
		}
	}
}

// progressLine renders one disk state as a single terminal line.
func progressLine(state *database.DiskState) string {
	line := fmt.Sprintf("%s %s", statusText(state.Status), state.Message)
	if state.SegmentsTotal > 0 {
		line += fmt.Sprintf("  [%d/%d]", state.SegmentsDone, state.SegmentsTotal)
	}
	if state.SkippedEntries > 0 {
		line += fmt.Sprintf("  %s skipped", humanize.Comma(state.SkippedEntries))
	}
	return line
}

func printResult(out io.Writer, res scanner.Result, err error) {
	if err != nil && res.Status == "" {
		return
	}

	fmt.Fprintf(out, "%s disk %q at %s\n", statusText(res.Status), res.Disk, res.Root)
	if res.Message != "" {
		fmt.Fprintf(out, "  Message:  %s\n", res.Message)
	}
	fmt.Fprintf(out, "  Files:    %s\n", humanize.Comma(res.Progress.Files))
	fmt.Fprintf(out, "  Size:     %s\n", humanize.IBytes(uint64(max(res.Progress.Bytes, 0))))
	if res.Progress.Skipped > 0 {
		fmt.Fprintf(out, "  Skipped:  %s\n", humanize.Comma(res.Progress.Skipped))
	}
	fmt.Fprintf(out, "  Segments: %d/%d\n", res.SegmentsDone, res.Segments)
	fmt.Fprintf(out, "  Duration: %v\n", res.Duration.Round(time.Millisecond))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
