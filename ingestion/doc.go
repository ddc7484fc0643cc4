// Package ingestion orchestrates single-shot ingestion runs.
//
// A run proceeds in stages: provision the store, load documents from
// every configured source, chunk and embed them concurrently on a
// worker pool, then write the chunks in batches with bounded retries.
// Per-item failures are recorded in the run summary and skipped; only
// failures that would leave the store empty or inconsistent abort the
// run. The summary report is written in every outcome, failed runs
// included.
package ingestion
