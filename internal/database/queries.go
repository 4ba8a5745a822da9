package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"disk-indexer/internal/logging"
)

// Search paging defaults
const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 1000
)

// DefaultOrder is used when OrderBy is empty or not whitelisted.
const DefaultOrder = "modified_at DESC"

var sortColumns = map[string]bool{
	"size":        true,
	"file_name":   true,
	"created_at":  true,
	"modified_at": true,
	"folder":      true,
}

// normalizeOrder maps a user supplied "column DIRECTION" to a whitelisted
// ORDER BY clause.
func normalizeOrder(orderBy string) string {
	fields := strings.Fields(orderBy)
	if len(fields) != 2 {
		return DefaultOrder
	}

	col := strings.ToLower(fields[0])
	dir := strings.ToUpper(fields[1])
	if !sortColumns[col] || (dir != "ASC" && dir != "DESC") {
		return DefaultOrder
	}
	return col + " " + dir
}

// buildSearchWhere composes the WHERE clause and its arguments.
func buildSearchWhere(opts SearchOptions) (string, []any) {
	var (
		where []string
		args  []any
	)

	if q := strings.TrimSpace(opts.Q); q != "" {
		like := "%" + q + "%"
		where = append(where, "(disk_name LIKE ? OR folder LIKE ? OR file_name LIKE ?)")
		args = append(args, like, like, like)
	}
	if disk := strings.TrimSpace(opts.Disk); disk != "" {
		where = append(where, "disk_name = ?")
		args = append(args, disk)
	}
	if folder := strings.TrimSpace(opts.Folder); folder != "" {
		where = append(where, "folder LIKE ?")
		args = append(args, "%"+folder+"%")
	}
	if name := strings.TrimSpace(opts.Name); name != "" {
		where = append(where, "file_name LIKE ?")
		args = append(args, "%"+name+"%")
	}
	if ext := strings.TrimLeft(strings.TrimSpace(opts.Ext), "."); ext != "" {
		where = append(where, "LOWER(file_name) LIKE ?")
		args = append(args, "%."+strings.ToLower(ext))
	}
	if opts.SizeMin != nil {
		where = append(where, "size >= ?")
		args = append(args, *opts.SizeMin)
	}
	if opts.SizeMax != nil {
		where = append(where, "size <= ?")
		args = append(args, *opts.SizeMax)
	}

	ranges := []struct {
		value string
		cond  string
	}{
		{opts.CreatedFrom, "created_at >= ?"},
		{opts.CreatedTo, "created_at <= ?"},
		{opts.ModifiedFrom, "modified_at >= ?"},
		{opts.ModifiedTo, "modified_at <= ?"},
	}
	for _, r := range ranges {
		if v := strings.TrimSpace(r.value); v != "" {
			where = append(where, r.cond)
			args = append(args, v)
		}
	}

	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

// SearchFiles returns one page of file records matching opts, plus the
// total number of matches.
func (d *Database) SearchFiles(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search_files", start, err) }()

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	offset := max(opts.Offset, 0)

	whereSQL, args := buildSearchWhere(opts)
	orderBy := normalizeOrder(opts.OrderBy)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result := &SearchResult{Items: []FileRecord{}}

	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files "+whereSQL, args...).Scan(&result.Total)
	if err != nil {
		logging.Error("Search count query failed: %v", err)
		return nil, fmt.Errorf("count query failed: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, disk_name, folder, file_name, size, created_at, modified_at
		FROM files
		%s
		ORDER BY %s
		LIMIT ? OFFSET ?`, whereSQL, orderBy)

	rows, err := d.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r FileRecord
		if err = rows.Scan(&r.ID, &r.DiskName, &r.Folder, &r.FileName, &r.Size, &r.CreatedAt, &r.ModifiedAt); err != nil {
			return nil, err
		}
		result.Items = append(result.Items, r)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	logging.Debug("SearchFiles: total=%d returned=%d order=%q in %v",
		result.Total, len(result.Items), orderBy, time.Since(start))
	return result, nil
}
