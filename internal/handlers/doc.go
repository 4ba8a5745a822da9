// Package handlers provides HTTP request handlers for the disk indexer API.
//
// It includes handlers for:
//   - Starting, cancelling and listing background scans
//   - Disk scan state and index statistics
//   - File record search
//   - Health checks and version information
//
// Every error response has the form {"status":"error","message":...}.
package handlers
