// Package reindex rebuilds a chunk store with a new embedding model.
//
// A model change can alter embedding dimensionality, which an existing
// store rejects, so reindexing reads every chunk from the source store in
// stable page order, re-embeds the text in batches with retry and
// exponential backoff, and writes the results into a fresh destination
// store. Progress is reported as batches complete.
package reindex
