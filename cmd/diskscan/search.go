package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"disk-indexer/internal/database"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type searchFlags struct {
	disk    string
	folder  string
	name    string
	ext     string
	minSize string
	maxSize string
	orderBy string
	limit   int
	offset  int
	format  string
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search indexed files",
		Long: `Search indexed files. The query matches the disk name, folder or file name.
Sizes accept human units such as 10MB or 1.5GiB.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			searchOpts, err := f.options(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			_, db, err := openDatabase(ctx, opts, true)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			result, err := db.SearchFiles(ctx, searchOpts)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return writeSearch(cmd.OutOrStdout(), result, searchOpts, f.format)
		},
	}

	cmd.Flags().StringVar(&f.disk, "disk", "", "only files on this disk")
	cmd.Flags().StringVar(&f.folder, "folder", "", "folder substring")
	cmd.Flags().StringVar(&f.name, "name", "", "file name substring")
	cmd.Flags().StringVar(&f.ext, "ext", "", "file extension, with or without the dot")
	cmd.Flags().StringVar(&f.minSize, "min-size", "", "minimum file size")
	cmd.Flags().StringVar(&f.maxSize, "max-size", "", "maximum file size")
	cmd.Flags().StringVar(&f.orderBy, "order-by", database.DefaultOrder, `sort order, "column ASC|DESC"`)
	cmd.Flags().IntVar(&f.limit, "limit", database.DefaultSearchLimit, "page size")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "rows to skip")
	cmd.Flags().StringVarP(&f.format, "output", "o", formatTable, "output format: table or json")

	return cmd
}

func (f *searchFlags) options(args []string) (database.SearchOptions, error) {
	opts := database.SearchOptions{
		Disk:    f.disk,
		Folder:  f.folder,
		Name:    f.name,
		Ext:     f.ext,
		OrderBy: f.orderBy,
		Limit:   f.limit,
		Offset:  f.offset,
	}
	if len(args) > 0 {
		opts.Q = args[0]
	}

	var err error
	if opts.SizeMin, err = parseSize("min-size", f.minSize); err != nil {
		return opts, err
	}
	if opts.SizeMax, err = parseSize("max-size", f.maxSize); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseSize(flag, value string) (*int64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	v := int64(n)
	return &v, nil
}

func writeSearch(w io.Writer, result *database.SearchResult, opts database.SearchOptions, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatTable:
		fmt.Fprintln(w, renderSearch(result, opts))
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderSearch(result *database.SearchResult, opts database.SearchOptions) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Disk", "Path", "Size", "Modified"})

	for _, r := range result.Items {
		tbl.AppendRow(table.Row{
			r.DiskName,
			filepath.Join(r.Folder, r.FileName),
			humanize.IBytes(uint64(max(r.Size, 0))),
			r.ModifiedAt,
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d of %s", len(result.Items), humanize.Comma(result.Total)),
		pageText(len(result.Items), opts.Offset, result.Total),
	})
	return tbl.Render()
}

// pageText describes the row range shown, 1-based.
func pageText(shown, offset int, total int64) string {
	if shown == 0 {
		return "no matches"
	}
	return fmt.Sprintf("rows %d-%d of %d", offset+1, offset+shown, total)
}
