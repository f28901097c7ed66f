// Package crawler holds the floorplan crawl pipeline: the shared types, the
// page and API fetch stages, and the orchestrator that runs every seed under
// a bounded number of permits.
package crawler
