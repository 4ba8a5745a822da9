// Package middleware provides HTTP middleware for the disk indexer API.
//
// It includes:
//   - Request IDs, echoed in the X-Request-ID response header
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Response compression (gzip) for JSON payloads
package middleware
