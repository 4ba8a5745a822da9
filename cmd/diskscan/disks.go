package main

import (
	"encoding/json"
	"fmt"
	"io"

	"disk-indexer/internal/database"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var statusColors = map[database.ScanStatus]*color.Color{
	database.StatusIdle:     color.New(color.FgHiBlack),
	database.StatusIndexing: color.New(color.FgYellow),
	database.StatusDone:     color.New(color.FgGreen),
	database.StatusError:    color.New(color.FgRed),
}

// statusText colors a scan status for terminal output.
func statusText(status database.ScanStatus) string {
	if status == "" {
		status = database.StatusIdle
	}
	c, ok := statusColors[status]
	if !ok {
		return string(status)
	}
	return c.Sprint(string(status))
}

func newDisksCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "disks",
		Short: "List known disks and their scan state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, db, err := openDatabase(ctx, opts, true)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			disks, err := db.ListDisks(ctx)
			if err != nil {
				return fmt.Errorf("failed to list disks: %w", err)
			}
			return writeDisks(cmd.OutOrStdout(), disks, format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format: table or json")
	return cmd
}

func writeDisks(w io.Writer, disks []database.DiskState, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(disks)
	case formatTable:
		fmt.Fprintln(w, renderDisks(disks))
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderDisks(disks []database.DiskState) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Disk", "Status", "Files", "Size", "Segments", "Skipped", "Last scan", "Message"})

	var files, bytes int64
	for _, d := range disks {
		lastScan := "never"
		if d.LastScanDate != nil {
			lastScan = *d.LastScanDate
		}
		tbl.AppendRow(table.Row{
			d.DiskName,
			statusText(d.Status),
			humanize.Comma(d.ProcessedFiles),
			humanize.IBytes(uint64(max(d.ProcessedBytes, 0))),
			fmt.Sprintf("%d/%d", d.SegmentsDone, d.SegmentsTotal),
			humanize.Comma(d.SkippedEntries),
			lastScan,
			d.Message,
		})
		files += d.ProcessedFiles
		bytes += d.ProcessedBytes
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d disks", len(disks)), "",
		humanize.Comma(files), humanize.IBytes(uint64(max(bytes, 0))),
	})
	return tbl.Render()
}
