package storage

import (
	"testing"
	"time"

	"github.com/poiesic/archivist/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Marshal
			data := MarshalID(tt.id)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			// Unmarshal
			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.Document{
		Id:         7,
		DocType:    "report",
		Workspace:  "research",
		CreatedAt:  now.Add(-time.Hour),
		InsertedAt: now,
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Id, decoded.Id)
	assert.Equal(t, doc.DocType, decoded.DocType)
	assert.Equal(t, doc.Workspace, decoded.Workspace)
	assert.True(t, doc.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, doc.InsertedAt.Equal(decoded.InsertedAt))
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		chunk *core.Chunk
	}{
		{
			"full chunk",
			&core.Chunk{
				Id:            core.IDFromContent("chunk"),
				DocumentId:    7,
				ChunkIndex:    3,
				Content:       "a small piece of content",
				Type:          core.ChunkTypeContentSmall,
				SearchWeight:  1.0,
				Vector:        []float32{0.1, -0.2, 0.3},
				ParentChunkId: core.IDFromContent("parent"),
				InsertedAt:    now,
				UpdatedAt:     now,
			},
		},
		{
			"no vector, no parent",
			&core.Chunk{
				Id:           11,
				DocumentId:   7,
				ChunkIndex:   0,
				Content:      "Quarterly Report",
				Type:         core.ChunkTypeTitle,
				SearchWeight: 2.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunk(tt.chunk)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChunk(data)
			require.NoError(t, err)
			assert.Equal(t, tt.chunk.Id, decoded.Id)
			assert.Equal(t, tt.chunk.DocumentId, decoded.DocumentId)
			assert.Equal(t, tt.chunk.ChunkIndex, decoded.ChunkIndex)
			assert.Equal(t, tt.chunk.Content, decoded.Content)
			assert.Equal(t, tt.chunk.Type, decoded.Type)
			assert.Equal(t, tt.chunk.SearchWeight, decoded.SearchWeight)
			assert.Equal(t, tt.chunk.ParentChunkId, decoded.ParentChunkId)
			if len(tt.chunk.Vector) == 0 {
				assert.Empty(t, decoded.Vector)
			} else {
				assert.Equal(t, tt.chunk.Vector, decoded.Vector)
			}
			assert.True(t, tt.chunk.InsertedAt.Equal(decoded.InsertedAt))
			assert.True(t, tt.chunk.UpdatedAt.Equal(decoded.UpdatedAt))
		})
	}
}

func TestMarshalUnmarshalIndexTask(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	task := &core.IndexTask{
		Id:           3,
		DocumentId:   7,
		Status:       core.TaskStatusFailed,
		Priority:     -5,
		AttemptCount: 2,
		MaxAttempts:  3,
		Reason:       "update",
		LastError:    "indexer unavailable",
		WorkerId:     "worker-1",
		CreatedAt:    now.Add(-time.Minute),
		StartedAt:    now.Add(-30 * time.Second),
	}

	data := MarshalIndexTask(task)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalIndexTask(data)
	require.NoError(t, err)
	assert.Equal(t, task.Id, decoded.Id)
	assert.Equal(t, task.DocumentId, decoded.DocumentId)
	assert.Equal(t, task.Status, decoded.Status)
	assert.Equal(t, task.Priority, decoded.Priority)
	assert.Equal(t, task.AttemptCount, decoded.AttemptCount)
	assert.Equal(t, task.MaxAttempts, decoded.MaxAttempts)
	assert.Equal(t, task.Reason, decoded.Reason)
	assert.Equal(t, task.LastError, decoded.LastError)
	assert.Equal(t, task.WorkerId, decoded.WorkerId)
	assert.True(t, task.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, task.StartedAt.Equal(decoded.StartedAt))

	// CompletedAt was never set; the zero value must survive the round trip
	assert.True(t, decoded.CompletedAt.IsZero())
}

func TestUnmarshalChunk_Truncated(t *testing.T) {
	chunk := &core.Chunk{
		Id:           1,
		DocumentId:   2,
		Content:      "content",
		Type:         core.ChunkTypeContentSmall,
		SearchWeight: 1.0,
	}
	data := MarshalChunk(chunk)

	_, err := UnmarshalChunk(data[:len(data)/2])
	assert.Error(t, err)
}
