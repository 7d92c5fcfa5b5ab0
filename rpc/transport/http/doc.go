// Package http serves the observability endpoints of a redkv node:
//
//   - GET /metrics: Prometheus text exposition of the server metrics
//   - GET /health: "ok" with status 200, or 503 with the reason
//
// Requests are logged at debug level with their status and duration.
package http
