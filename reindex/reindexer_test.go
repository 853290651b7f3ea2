package reindex

import (
	"bytes"
	"context"
	"testing"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
	"github.com/poiesic/archivist/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStores(t *testing.T) (storage.DocumentRepository, storage.TaskRepository) {
	chunkRepo, docRepo, taskRepo, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		taskRepo.Close()
		docRepo.Close()
		chunkRepo.Close()
		backend.Close()
	})
	return docRepo, taskRepo
}

func TestNewReindexer_Validation(t *testing.T) {
	docRepo, taskRepo := setupTestStores(t)

	_, err := NewReindexer(nil, taskRepo, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewReindexer(docRepo, nil, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrTaskRepositoryRequired)
}

func TestReindexer_Run(t *testing.T) {
	docRepo, taskRepo := setupTestStores(t)
	ctx := context.Background()

	for i := core.ID(1); i <= 7; i++ {
		_, err := docRepo.PutDocuments(ctx, &core.Document{Id: i, DocType: "note"})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.BatchSize = 3
	reindexer, err := NewReindexer(docRepo, taskRepo, cfg, &buf)
	require.NoError(t, err)

	scheduled, err := reindexer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, scheduled)

	counts, err := taskRepo.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, counts[core.TaskStatusPending])

	task, err := taskRepo.GetActiveTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Reason, task.Reason)

	assert.Contains(t, buf.String(), "Scheduling reindex of 7 documents")
}

func TestReindexer_Run_Empty(t *testing.T) {
	docRepo, taskRepo := setupTestStores(t)

	var buf bytes.Buffer
	reindexer, err := NewReindexer(docRepo, taskRepo, nil, &buf)
	require.NoError(t, err)

	scheduled, err := reindexer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, scheduled)
	assert.Contains(t, buf.String(), "No documents found")
}

func TestReindexer_Run_KeepsActiveTasks(t *testing.T) {
	docRepo, taskRepo := setupTestStores(t)
	ctx := context.Background()

	_, err := docRepo.PutDocuments(ctx, &core.Document{Id: 1, DocType: "note"})
	require.NoError(t, err)

	// Document already has an active high-priority task
	existing, err := taskRepo.Enqueue(ctx, 1, "create", 9)
	require.NoError(t, err)

	var buf bytes.Buffer
	reindexer, err := NewReindexer(docRepo, taskRepo, nil, &buf)
	require.NoError(t, err)

	scheduled, err := reindexer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, scheduled)

	// The existing task is untouched; no duplicate was created
	task, err := taskRepo.GetActiveTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, existing.Id, task.Id)
	assert.Equal(t, "create", task.Reason)
	assert.Equal(t, 9, task.Priority)

	counts, err := taskRepo.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[core.TaskStatusPending])
}
