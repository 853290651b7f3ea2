package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

const (
	// DefaultMaxAttempts is the retry budget assigned to new tasks.
	DefaultMaxAttempts = 3

	// defaultClaimRetries bounds how often a claim or enqueue is replayed
	// after losing a transaction conflict to a concurrent caller.
	defaultClaimRetries = 16
)

// errStaleReadyEntry signals that a ready-index entry pointed at a task
// that is no longer claimable. The entry is dropped and the scan replayed.
var errStaleReadyEntry = errors.New("stale ready index entry")

// TaskRepository implements storage.TaskRepository for BadgerDB.
//
// Claim atomicity comes from badger's transaction conflict detection: a
// claim reads the head of the ready index and flips the task inside one
// read-write transaction. When two workers race for the same task, one
// commit succeeds and the other fails with ErrConflict, after which the
// loser rescans and finds either the next task or nothing. This is the
// optimistic equivalent of a select-for-update-skip-locked claim.
type TaskRepository struct {
	backend      *Backend
	idSeq        *badger.Sequence
	maxAttempts  int
	claimRetries int
	logger       *slog.Logger
}

var _ storage.TaskRepository = (*TaskRepository)(nil)

// TaskOption configures a TaskRepository.
type TaskOption func(*TaskRepository) error

// WithMaxAttempts sets the retry budget assigned to newly enqueued tasks.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(n int) TaskOption {
	return func(r *TaskRepository) error {
		if n <= 0 {
			return core.ErrInvalidMaxAttempts
		}
		r.maxAttempts = n
		return nil
	}
}

// WithTaskLogger sets a custom logger.
// Default is slog.Default().
func WithTaskLogger(logger *slog.Logger) TaskOption {
	return func(r *TaskRepository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(backend *Backend, opts ...TaskOption) (*TaskRepository, error) {
	idSeq, err := backend.GetSequence(taskRecordIDSeq)
	if err != nil {
		return nil, err
	}

	r := &TaskRepository{
		backend:      backend,
		idSeq:        idSeq,
		maxAttempts:  DefaultMaxAttempts,
		claimRetries: defaultClaimRetries,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			idSeq.Release()
			return nil, err
		}
	}

	return r, nil
}

// Close releases the ID sequence.
func (r *TaskRepository) Close() error {
	return r.idSeq.Release()
}

// Enqueue creates a pending task for the document, or returns the existing
// task when the document already has an active one.
func (r *TaskRepository) Enqueue(ctx context.Context, documentId core.ID, reason string, priority int) (*core.IndexTask, error) {
	if documentId == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidIndexTask, core.ErrMissingDocumentId)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidIndexTask, core.ErrEmptyReason)
	}

	var result *core.IndexTask
	for attempt := 0; attempt < r.claimRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result = nil
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			// An existing active marker wins: return its task unchanged.
			existing, err := r.readActiveTask(tx, documentId)
			if err != nil {
				return err
			}
			if existing != nil {
				result = existing
				return nil
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}

			now := time.Now().UTC()
			task := &core.IndexTask{
				Id:          core.ID(nextID),
				DocumentId:  documentId,
				Status:      core.TaskStatusPending,
				Priority:    priority,
				MaxAttempts: r.maxAttempts,
				Reason:      reason,
				CreatedAt:   now,
			}

			if err := tx.Set(makeTaskKey(task.Id), storage.MarshalIndexTask(task)); err != nil {
				return err
			}
			if err := tx.Set(makeTaskDocKey(documentId), storage.MarshalID(task.Id)); err != nil {
				return err
			}
			readyKey := makeTaskReadyKey(readyClassPending, task.Priority, task.CreatedAt, task.Id)
			if err := tx.Set(readyKey, storage.MarshalID(task.Id)); err != nil {
				return err
			}
			if err := tx.Set(makeTaskCreatedKey(task.CreatedAt, task.Id), storage.MarshalID(task.Id)); err != nil {
				return err
			}

			result = task
			return tx.Commit()
		}, true)

		if errors.Is(err, badger.ErrConflict) {
			// A concurrent enqueue for the same document committed first;
			// rescan so both callers observe the same task.
			continue
		}
		return result, err
	}

	return nil, fmt.Errorf("%w: enqueue for document %d kept conflicting", storage.ErrTransactionFailed, documentId)
}

// ClaimNext atomically claims the best eligible task for the worker.
// Returns nil when no claimable task exists.
func (r *TaskRepository) ClaimNext(ctx context.Context, workerId string) (*core.IndexTask, error) {
	for attempt := 0; attempt < r.claimRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var claimed *core.IndexTask
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(taskReadyPrefix + ":")
			iter := tx.NewIterator(opts)
			defer iter.Close()

			iter.Rewind()
			if !iter.Valid() {
				// Queue empty. Not an error.
				return nil
			}

			item := iter.Item()
			readyKey := item.KeyCopy(nil)
			var taskId core.ID
			if err := item.Value(func(val []byte) error {
				var err error
				taskId, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			task, err := r.readTask(tx, makeTaskKey(taskId))
			if err != nil {
				return err
			}
			if task == nil || !task.Claimable() {
				// Index entry outlived its task; drop it and rescan.
				if err := tx.Delete(readyKey); err != nil {
					return err
				}
				if err := tx.Commit(); err != nil {
					return err
				}
				return errStaleReadyEntry
			}

			task.Status = core.TaskStatusProcessing
			task.AttemptCount++
			task.StartedAt = time.Now().UTC()
			task.WorkerId = workerId

			if err := tx.Set(makeTaskKey(task.Id), storage.MarshalIndexTask(task)); err != nil {
				return err
			}
			if err := tx.Delete(readyKey); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}

			claimed = task
			return nil
		}, true)

		if errors.Is(err, badger.ErrConflict) || errors.Is(err, errStaleReadyEntry) {
			// Lost the race to another claimer. Rescan for the next task.
			continue
		}
		return claimed, err
	}

	// Contention is expected under many workers and is not an error; the
	// caller polls again like any other empty-queue result.
	r.logger.Debug("claim retries exhausted under contention", "worker", workerId)
	return nil, nil
}

// Complete reports the outcome of a claimed task.
func (r *TaskRepository) Complete(ctx context.Context, taskId core.ID, success bool, taskErr string) (*core.IndexTask, error) {
	var result *core.IndexTask
	for attempt := 0; attempt < r.claimRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			task, err := r.readTask(tx, makeTaskKey(taskId))
			if err != nil {
				return err
			}
			if task == nil {
				return storage.ErrNotFound
			}
			if task.Status != core.TaskStatusProcessing {
				return storage.ErrTaskNotProcessing
			}

			now := time.Now().UTC()
			if success {
				task.Status = core.TaskStatusCompleted
				task.CompletedAt = now
				task.LastError = ""
				if err := tx.Delete(makeTaskDocKey(task.DocumentId)); err != nil {
					return err
				}
			} else {
				task.Status = core.TaskStatusFailed
				task.LastError = taskErr
				if task.AttemptCount < task.MaxAttempts {
					// Retryable: back into the ready index, keeping the
					// document's active-task slot occupied.
					readyKey := makeTaskReadyKey(readyClassFailed, task.Priority, task.CreatedAt, task.Id)
					if err := tx.Set(readyKey, storage.MarshalID(task.Id)); err != nil {
						return err
					}
				} else {
					// Terminal: the row stays visible for operators.
					task.CompletedAt = now
					if err := tx.Delete(makeTaskDocKey(task.DocumentId)); err != nil {
						return err
					}
				}
			}

			if err := tx.Set(makeTaskKey(task.Id), storage.MarshalIndexTask(task)); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}

			result = task
			return nil
		}, true)

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return result, err
	}

	return nil, fmt.Errorf("%w: complete for task %d kept conflicting", storage.ErrTransactionFailed, taskId)
}

// Skip administratively excludes a pending or failed task.
func (r *TaskRepository) Skip(ctx context.Context, taskId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		task, err := r.readTask(tx, makeTaskKey(taskId))
		if err != nil {
			return err
		}
		if task == nil {
			return storage.ErrNotFound
		}
		if task.Status != core.TaskStatusPending && task.Status != core.TaskStatusFailed {
			return storage.ErrTaskNotSkippable
		}

		readyKey := makeTaskReadyKey(readyClassFor(task.Status), task.Priority, task.CreatedAt, task.Id)
		if err := tx.Delete(readyKey); err != nil {
			return err
		}
		if err := tx.Delete(makeTaskDocKey(task.DocumentId)); err != nil {
			return err
		}

		task.Status = core.TaskStatusSkipped
		task.CompletedAt = time.Now().UTC()
		if err := tx.Set(makeTaskKey(task.Id), storage.MarshalIndexTask(task)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetTask retrieves a single task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id core.ID) (*core.IndexTask, error) {
	var result *core.IndexTask
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readTask(tx, makeTaskKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetActiveTask returns the task occupying the document's active slot.
func (r *TaskRepository) GetActiveTask(ctx context.Context, documentId core.ID) (*core.IndexTask, error) {
	var result *core.IndexTask
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readActiveTask(tx, documentId)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListTasksByStatus returns up to limit tasks in the given status, ordered
// by creation time ascending.
func (r *TaskRepository) ListTasksByStatus(ctx context.Context, status core.TaskStatus, limit int) ([]*core.IndexTask, error) {
	if err := core.ValidateTaskStatus(status); err != nil {
		return nil, err
	}

	var results []*core.IndexTask
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(taskCreatedPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(results) < limit; iter.Next() {
			var taskId core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				taskId, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			task, err := r.readTask(tx, makeTaskKey(taskId))
			if err != nil {
				return err
			}
			if task != nil && task.Status == status {
				results = append(results, task)
			}
		}
		return nil
	}, false)

	return results, err
}

// CountTasks returns the number of tasks per status.
func (r *TaskRepository) CountTasks(ctx context.Context) (map[core.TaskStatus]int, error) {
	counts := make(map[core.TaskStatus]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(taskRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var task *core.IndexTask
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				task, err = storage.UnmarshalIndexTask(val)
				return err
			}); err != nil {
				return err
			}
			counts[task.Status]++
		}
		return nil
	}, false)

	return counts, err
}

// RequeueStuck forces processing tasks older than the cutoff back to pending.
func (r *TaskRepository) RequeueStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	var requeued int
	for attempt := 0; attempt < r.claimRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		requeued = 0
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(taskRecordPrefix + ":")
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Rewind(); iter.Valid(); iter.Next() {
				var task *core.IndexTask
				if err := iter.Item().Value(func(val []byte) error {
					var err error
					task, err = storage.UnmarshalIndexTask(val)
					return err
				}); err != nil {
					return err
				}

				if task.Status != core.TaskStatusProcessing {
					continue
				}
				if task.StartedAt.IsZero() || !task.StartedAt.Before(cutoff) {
					continue
				}

				r.logger.Warn("requeueing stuck task",
					"task", task.Id, "document", task.DocumentId,
					"worker", task.WorkerId, "startedAt", task.StartedAt)

				task.Status = core.TaskStatusPending
				task.WorkerId = ""
				if err := tx.Set(makeTaskKey(task.Id), storage.MarshalIndexTask(task)); err != nil {
					return err
				}
				readyKey := makeTaskReadyKey(readyClassPending, task.Priority, task.CreatedAt, task.Id)
				if err := tx.Set(readyKey, storage.MarshalID(task.Id)); err != nil {
					return err
				}
				requeued++
			}

			if requeued == 0 {
				return nil
			}
			return tx.Commit()
		}, true)

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return requeued, err
	}

	return 0, fmt.Errorf("%w: requeue kept conflicting", storage.ErrTransactionFailed)
}

// Helper methods

// readTask reads a task from the transaction. Returns nil when missing.
func (r *TaskRepository) readTask(tx *badger.Txn, key []byte) (*core.IndexTask, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var task *core.IndexTask
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		task, unmarshalErr = storage.UnmarshalIndexTask(val)
		return unmarshalErr
	})
	return task, err
}

// readActiveTask resolves the document's active-task marker to its task.
// Returns nil when the document has no active task.
func (r *TaskRepository) readActiveTask(tx *badger.Txn, documentId core.ID) (*core.IndexTask, error) {
	item, err := tx.Get(makeTaskDocKey(documentId))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var taskId core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		taskId, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}

	return r.readTask(tx, makeTaskKey(taskId))
}
