// Package main hosts the floorplan-crawler entrypoint.
//
// Architecture overview:
//   - Crawl: every run walks the configured gallery seed URLs. Each seed is validated, its page fetched, the
//     project key pulled from the page's editor link, the project JSON fetched from the API and reduced to one
//     row (hash, name, floor and room counts). Seeds run concurrently under a fixed permit count
//     (crawler.max_concurrent) and fail independently.
//   - Output: rows go to one CSV file that is replaced by the first successful row of every run. When
//     configured, each row is also upserted into Postgres and published to Pub/Sub, and the finished file is
//     uploaded to GCS.
//   - HTTP: `serve` exposes the entry page, /generate-csv, /download-csv, probes and /metrics. Only one
//     crawl runs at a time; a second request gets 409.
//   - Plumbing: Viper reads config from file and CRAWLER_* env vars, zap logs carry run_id and url fields,
//     Prometheus collectors track seeds, fetches, permits and HTTP traffic.
//
// Quick checklist:
//   - Run once: go run ./cmd/floorplan-crawler crawl --config config.yaml
//   - Serve: go run ./cmd/floorplan-crawler serve (port from CRAWLER_SERVER_PORT or --port)
//   - Optional backends: CRAWLER_DB_DSN, CRAWLER_PUBSUB_PROJECT_ID/TOPIC_NAME, CRAWLER_STORAGE_GCS_BUCKET.
package main
