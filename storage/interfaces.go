package storage

import (
	"context"
	"time"

	"github.com/poiesic/archivist/core"
)

// ChunkRepository provides operations for managing document chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// ReplaceDocumentChunks atomically replaces all chunks for a document.
	// Existing chunks are deleted and the new batch inserted inside one
	// transaction, so readers observe all-old or all-new chunks, never a mix.
	// Chunks with ID=0 get content-based IDs. The batch is validated with
	// core.ValidateChunkBatch before any write.
	// Returns the chunks with IDs and timestamps populated.
	ReplaceDocumentChunks(ctx context.Context, documentId core.ID, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetDocumentChunks retrieves all chunks of a document, ordered by
	// chunk index. Returns an empty slice for an unknown document.
	GetDocumentChunks(ctx context.Context, documentId core.ID) ([]*core.Chunk, error)

	// DeleteDocumentChunks removes all chunks of a document.
	// Deleting chunks of an unknown document is not an error.
	DeleteDocumentChunks(ctx context.Context, documentId core.ID) error

	// ScanChunks iterates over every stored chunk in a read-only snapshot,
	// calling fn for each. Iteration stops on the first error from fn.
	ScanChunks(ctx context.Context, fn func(*core.Chunk) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing document records.
// Document attributes are owned by the external ingestion collaborator;
// this repository only stores them for search-time filtering.
type DocumentRepository interface {
	// PutDocuments inserts or updates document records.
	// Sets InsertedAt timestamp if not already set.
	PutDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// DeleteDocument removes a document record.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// ListDocuments returns up to limit documents with IDs greater than
	// afterId, in ascending ID order. Pass afterId=0 to start from the
	// beginning. Used for batched iteration over the whole corpus.
	ListDocuments(ctx context.Context, afterId core.ID, limit int) ([]*core.Document, error)

	// FilterDocuments returns the IDs of documents matching the given
	// attribute filters. An empty docTypes slice matches every doc type;
	// an empty workspace matches every workspace.
	FilterDocuments(ctx context.Context, docTypes []string, workspace string) (map[core.ID]struct{}, error)

	// Close closes the repository and releases resources.
	Close() error
}

// TaskRepository is the durable index task queue. All mutual exclusion
// between concurrent workers is enforced by the atomic claim operation;
// callers never need additional locking.
type TaskRepository interface {
	// Enqueue creates a pending task for the document, or returns the
	// existing task unchanged when the document already has an active
	// (pending, processing, or retryable-failed) task. Idempotent with
	// respect to concurrent callers.
	Enqueue(ctx context.Context, documentId core.ID, reason string, priority int) (*core.IndexTask, error)

	// ClaimNext atomically claims the best eligible task for the worker:
	// pending before retryable failed, then priority descending, then
	// oldest first. On success the task transitions to processing with
	// AttemptCount incremented, StartedAt set, and the worker recorded.
	// Returns nil (not an error) when no eligible task exists. Exactly one
	// concurrent caller can claim a given task; the others see a different
	// task or nil.
	ClaimNext(ctx context.Context, workerId string) (*core.IndexTask, error)

	// Complete reports the outcome of a claimed task. On success the task
	// becomes completed and LastError is cleared. On failure the task
	// becomes failed and is claimable again while AttemptCount <
	// MaxAttempts; otherwise it is terminal and LastError is retained for
	// operators. Returns ErrTaskNotProcessing if the task is not currently
	// processing; no state changes in that case.
	Complete(ctx context.Context, taskId core.ID, success bool, taskErr string) (*core.IndexTask, error)

	// Skip administratively excludes a pending or failed task.
	// Returns ErrTaskNotSkippable for tasks in other states.
	Skip(ctx context.Context, taskId core.ID) error

	// GetTask retrieves a single task by ID.
	// Returns ErrNotFound if the task doesn't exist.
	GetTask(ctx context.Context, id core.ID) (*core.IndexTask, error)

	// GetActiveTask returns the task currently occupying the document's
	// active slot, or ErrNotFound when none exists.
	GetActiveTask(ctx context.Context, documentId core.ID) (*core.IndexTask, error)

	// ListTasksByStatus returns up to limit tasks in the given status,
	// ordered by creation time ascending.
	ListTasksByStatus(ctx context.Context, status core.TaskStatus, limit int) ([]*core.IndexTask, error)

	// CountTasks returns the number of tasks per status.
	CountTasks(ctx context.Context) (map[core.TaskStatus]int, error)

	// RequeueStuck forces processing tasks whose StartedAt is older than
	// the cutoff back to pending, making them claimable again. This is the
	// supervisor-side recovery for workers that died while holding a task.
	// Returns the number of tasks requeued.
	RequeueStuck(ctx context.Context, olderThan time.Duration) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
