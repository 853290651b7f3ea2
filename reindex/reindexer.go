// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// Reason is the task reason recorded for bulk-scheduled index tasks.
const Reason = "reindex"

// Config holds configuration for the reindex scheduling operation.
type Config struct {
	// BatchSize is the number of documents to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed enqueue batches
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Priority is the task priority assigned to scheduled tasks
	Priority int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Priority:       0,
	}
}

// Reindexer schedules an index task for every stored document.
type Reindexer struct {
	docRepo  storage.DocumentRepository
	taskRepo storage.TaskRepository
	config   *Config
	progress io.Writer
	iterator *DocumentIterator
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(docRepo storage.DocumentRepository, taskRepo storage.TaskRepository, config *Config, progress io.Writer) (*Reindexer, error) {
	if docRepo == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if taskRepo == nil {
		return nil, ErrTaskRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Reindexer{
		docRepo:  docRepo,
		taskRepo: taskRepo,
		config:   config,
		progress: progress,
		iterator: NewDocumentIterator(docRepo, config.BatchSize),
	}, nil
}

// Run executes the scheduling operation. An index task is enqueued for every
// document in the corpus; documents that already have an active task keep it
// unchanged. Returns the number of documents scheduled.
func (r *Reindexer) Run(ctx context.Context) (int, error) {
	totalDocuments, err := r.iterator.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	if totalDocuments == 0 {
		fmt.Fprintf(r.progress, "No documents found in database (0 documents)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Scheduling reindex of %d documents (batch size: %d)\n",
		totalDocuments, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalDocuments, r.config.ReportInterval)
	tracker.Start()

	scheduled := 0

	err = r.iterator.ForEach(ctx, func(docs []*core.Document) error {
		// Enqueue this batch, retrying transient failures
		enqueueErr := RetryWithBackoff(ctx, func() error {
			for _, doc := range docs {
				if _, err := r.taskRepo.Enqueue(ctx, doc.Id, Reason, r.config.Priority); err != nil {
					return err
				}
			}
			return nil
		}, r.config.MaxRetries, r.config.RetryDelay)
		if enqueueErr != nil {
			return fmt.Errorf("failed to enqueue batch: %w", enqueueErr)
		}

		scheduled += len(docs)
		tracker.Update(scheduled)
		return nil
	})

	if err != nil {
		return scheduled, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex scheduling complete. Scheduled %d documents in %v (%.1f documents/sec)\n",
		totalDocuments, elapsed.Round(time.Second), float64(totalDocuments)/elapsed.Seconds())

	return scheduled, nil
}
