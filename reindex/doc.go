// Package reindex provides bulk re-enqueueing of index tasks for every
// stored document, typically after an embedding model change or a chunking
// strategy update.
//
// The package supports batched iteration over the document corpus, progress
// tracking, and retry logic with exponential backoff around enqueue batches.
// Actual reindexing work is performed by queue workers; this package only
// schedules it.
package reindex
