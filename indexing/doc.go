// Package indexing provides pipeline orchestration for document indexing tasks.
//
// The Pipeline type coordinates the work around the durable task queue:
//   - Registering documents and enqueueing their index tasks
//   - Claiming tasks with the atomic queue claim
//   - Running the Indexer to produce chunks for a claimed document
//   - Replacing the document's chunks atomically and reporting the outcome
//
// Processing is performed concurrently using a worker pool. A task that fails
// is reported back to the queue, which owns the retry budget; the pipeline
// never retries on its own.
package indexing
