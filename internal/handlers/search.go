package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"disk-indexer/internal/database"
	"disk-indexer/internal/logging"
)

// parseSearchOptions maps query parameters to SearchOptions. Numeric
// parameters that do not parse are ignored.
func parseSearchOptions(q url.Values) database.SearchOptions {
	get := func(key string) string {
		return strings.TrimSpace(q.Get(key))
	}

	opts := database.SearchOptions{
		Q:            get("q"),
		Disk:         get("disk"),
		Folder:       get("folder"),
		Name:         get("name"),
		Ext:          get("ext"),
		CreatedFrom:  get("created_from"),
		CreatedTo:    get("created_to"),
		ModifiedFrom: get("modified_from"),
		ModifiedTo:   get("modified_to"),
		OrderBy:      q.Get("order_by"),
		Limit:        database.DefaultSearchLimit,
	}

	if v, err := strconv.ParseInt(get("size_min"), 10, 64); err == nil {
		opts.SizeMin = &v
	}
	if v, err := strconv.ParseInt(get("size_max"), 10, 64); err == nil {
		opts.SizeMax = &v
	}
	if v, err := strconv.Atoi(get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(get("offset")); err == nil {
		opts.Offset = v
	}

	return opts
}

// Search returns one page of file records matching the query parameters.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	opts := parseSearchOptions(r.URL.Query())

	result, err := h.db.SearchFiles(r.Context(), opts)
	if err != nil {
		logging.Error("Search failed: %v", err)
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	writeJSONStatusCode(w, http.StatusOK, result)
}
