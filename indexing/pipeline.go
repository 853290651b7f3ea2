package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// Pipeline orchestrates the indexing of documents through the task queue.
// It manages concurrent workers that claim tasks, run the indexer, and
// replace the document's chunks.
type Pipeline struct {
	taskRepository     storage.TaskRepository
	chunkRepository    storage.ChunkRepository
	documentRepository storage.DocumentRepository
	indexer            Indexer
	pool               *ants.Pool
	workerPrefix       string
	workerSeq          atomic.Uint64
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent task processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithWorkerPrefix sets the prefix for generated worker identifiers.
// Default is "worker".
func WithWorkerPrefix(prefix string) Option {
	return func(p *Pipeline) error {
		if prefix != "" {
			p.workerPrefix = prefix
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	taskRepository storage.TaskRepository,
	chunkRepository storage.ChunkRepository,
	documentRepository storage.DocumentRepository,
	indexer Indexer,
	opts ...Option,
) (*Pipeline, error) {
	if taskRepository == nil {
		return nil, ErrTaskRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if documentRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		taskRepository:     taskRepository,
		chunkRepository:    chunkRepository,
		documentRepository: documentRepository,
		indexer:            indexer,
		pool:               pool,
		workerPrefix:       "worker",
		logger:             slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestDocument registers a document and enqueues an index task for it.
// The task is processed asynchronously by the pipeline's workers; errors
// during async processing are reported to the queue, not to the caller.
// Returns the enqueued (or already active) task.
func (p *Pipeline) IngestDocument(ctx context.Context, doc *core.Document, reason string, priority int) (*core.IndexTask, error) {
	if _, err := p.documentRepository.PutDocuments(ctx, doc); err != nil {
		return nil, err
	}

	task, err := p.taskRepository.Enqueue(ctx, doc.Id, reason, priority)
	if err != nil {
		return nil, err
	}

	// Wake a worker to drain the queue
	p.pool.Submit(func() {
		p.Drain(context.Background())
	})

	return task, nil
}

// Drain claims and processes tasks until the queue has no eligible task
// left. Returns the number of tasks processed. Safe to call from multiple
// goroutines; the atomic claim keeps workers from colliding.
func (p *Pipeline) Drain(ctx context.Context) int {
	workerId := fmt.Sprintf("%s-%d", p.workerPrefix, p.workerSeq.Add(1))
	logger := p.logger.With("worker", workerId)

	processed := 0
	for {
		if ctx.Err() != nil {
			return processed
		}

		task, err := p.taskRepository.ClaimNext(ctx, workerId)
		if err != nil {
			logger.Error("error claiming task", "err", err)
			return processed
		}
		if task == nil {
			return processed
		}

		p.processTask(ctx, logger, task)
		processed++
	}
}

// processTask runs the indexer for a claimed task and reports the outcome.
func (p *Pipeline) processTask(ctx context.Context, logger *slog.Logger, task *core.IndexTask) {
	logger.Info("processing index task",
		"task", task.Id, "document", task.DocumentId,
		"reason", task.Reason, "attempt", task.AttemptCount)

	if err := p.indexDocument(ctx, task); err != nil {
		logger.Warn("index task failed",
			"task", task.Id, "document", task.DocumentId, "err", err)
		if _, cerr := p.taskRepository.Complete(ctx, task.Id, false, err.Error()); cerr != nil {
			logger.Error("error reporting task failure", "task", task.Id, "err", cerr)
		}
		return
	}

	if _, err := p.taskRepository.Complete(ctx, task.Id, true, ""); err != nil {
		logger.Error("error reporting task success", "task", task.Id, "err", err)
	}
}

// indexDocument produces and stores the replacement chunk set for the task's
// document.
func (p *Pipeline) indexDocument(ctx context.Context, task *core.IndexTask) error {
	doc, err := p.documentRepository.GetDocument(ctx, task.DocumentId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("document %d no longer exists", task.DocumentId)
		}
		return err
	}

	chunks, err := p.indexer.IndexDocument(ctx, doc, task)
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		chunk.Vector = NormalizeVector(chunk.Vector)
	}

	_, err = p.chunkRepository.ReplaceDocumentChunks(ctx, task.DocumentId, chunks...)
	return err
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
