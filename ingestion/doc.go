// Package ingestion turns source files into embedded chunks in the store.
//
// Files are split into overlapping word windows, embedded in batches, and
// written through the single-writer store interface. Multiple files are
// processed concurrently on a worker pool; store writes stay serialized.
package ingestion
