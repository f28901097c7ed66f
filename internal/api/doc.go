// Package api hosts the HTTP server for the crawler. Notable routes:
//   - GET / serves the entry page with the Generate CSV button.
//   - GET /generate-csv runs a crawl to completion (409 while one is running).
//   - GET /download-csv returns the latest CSV.
//   - GET /healthz and /readyz for probes, /metrics for Prometheus scraping.
package api
