package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkType classifies a chunk of document text.
type ChunkType int

const (
	// ChunkTypeTitle is the document title. Title matches outrank all
	// other chunk matches for the same document.
	ChunkTypeTitle ChunkType = iota + 1
	// ChunkTypePersons lists person names extracted from the document.
	ChunkTypePersons
	// ChunkTypeOrganizations lists organization names extracted from the document.
	ChunkTypeOrganizations
	// ChunkTypeSummary is a generated summary of the document.
	ChunkTypeSummary
	// ChunkTypeDate holds date expressions found in the document.
	ChunkTypeDate
	// ChunkTypeTags holds classification tags assigned to the document.
	ChunkTypeTags
	// ChunkTypePeople holds people mentioned in relation to the document.
	ChunkTypePeople
	// ChunkTypeContentSmall is a small body-text fragment used for matching.
	ChunkTypeContentSmall
	// ChunkTypeContentLarge is a large body-text fragment. It is never a
	// match candidate; it only serves as parent context for small chunks.
	ChunkTypeContentLarge
	// ChunkTypeSynthetic is generated text derived from the document,
	// e.g. hypothetical questions the document answers.
	ChunkTypeSynthetic
)

var chunkTypeNames = map[ChunkType]string{
	ChunkTypeTitle:         "title",
	ChunkTypePersons:       "persons",
	ChunkTypeOrganizations: "organizations",
	ChunkTypeSummary:       "summary",
	ChunkTypeDate:          "date",
	ChunkTypeTags:          "tags",
	ChunkTypePeople:        "people",
	ChunkTypeContentSmall:  "content_small",
	ChunkTypeContentLarge:  "content_large",
	ChunkTypeSynthetic:     "synthetic",
}

// String returns the canonical lowercase name of the chunk type.
func (t ChunkType) String() string {
	if name, ok := chunkTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseChunkType resolves a canonical chunk type name to its ChunkType value.
// Returns ErrInvalidChunkType for unrecognized names.
func ParseChunkType(name string) (ChunkType, error) {
	for t, n := range chunkTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, ErrInvalidChunkType
}

// Document represents a document known to the index. The descriptive
// attributes are owned by the external ingestion collaborator; the core
// stores them so searches can filter on them.
type Document struct {
	Id         ID
	DocType    string
	Workspace  string
	CreatedAt  time.Time // When the document was created by the ingestion system
	InsertedAt time.Time // When the record was inserted into the database
}

// Chunk is a typed, independently embedded and weighted fragment of a
// document's text. Chunks are unique per (DocumentId, ChunkIndex).
type Chunk struct {
	Id            ID
	DocumentId    ID
	ChunkIndex    int
	Content       string
	Type          ChunkType
	SearchWeight  float32   // Positive multiplier applied to vector similarity
	Vector        []float32 // Embedding vector (populated by the indexer)
	ParentChunkId ID        // Optional larger context chunk; 0 means none
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// HasParent reports whether the chunk references a parent context chunk.
func (c *Chunk) HasParent() bool {
	return c.ParentChunkId != 0
}

// TaskStatus is the state of an index task.
type TaskStatus int

const (
	// TaskStatusPending means the task is waiting to be claimed.
	TaskStatusPending TaskStatus = iota + 1
	// TaskStatusProcessing means a worker holds the task.
	TaskStatusProcessing
	// TaskStatusCompleted means indexing finished successfully.
	TaskStatusCompleted
	// TaskStatusFailed means the last attempt failed. The task is
	// claimable again while AttemptCount < MaxAttempts.
	TaskStatusFailed
	// TaskStatusSkipped means an operator excluded the task.
	TaskStatusSkipped
)

var taskStatusNames = map[TaskStatus]string{
	TaskStatusPending:    "pending",
	TaskStatusProcessing: "processing",
	TaskStatusCompleted:  "completed",
	TaskStatusFailed:     "failed",
	TaskStatusSkipped:    "skipped",
}

// String returns the canonical lowercase name of the task status.
func (s TaskStatus) String() string {
	if name, ok := taskStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IndexTask represents "this document needs (re)indexing".
type IndexTask struct {
	Id           ID
	DocumentId   ID
	Status       TaskStatus
	Priority     int // Higher priorities are claimed first
	AttemptCount int
	MaxAttempts  int
	Reason       string
	LastError    string
	WorkerId     string
	CreatedAt    time.Time
	StartedAt    time.Time // Set when claimed; stuck-task detection reads this
	CompletedAt  time.Time
}

// Active reports whether the task currently occupies its document's
// one-active-task slot.
func (t *IndexTask) Active() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusProcessing
}

// Terminal reports whether the task can never be claimed again.
func (t *IndexTask) Terminal() bool {
	switch t.Status {
	case TaskStatusCompleted, TaskStatusSkipped:
		return true
	case TaskStatusFailed:
		return t.AttemptCount >= t.MaxAttempts
	default:
		return false
	}
}

// Claimable reports whether ClaimNext may hand this task to a worker.
func (t *IndexTask) Claimable() bool {
	if t.Status == TaskStatusPending {
		return true
	}
	return t.Status == TaskStatusFailed && t.AttemptCount < t.MaxAttempts
}

// DocumentHit is a single search result. Search returns at most one hit
// per document.
type DocumentHit struct {
	DocumentId ID
	ChunkId    ID
	ChunkIndex int
	ChunkType  ChunkType
	// Content is the matched chunk's own text.
	Content string
	// ContextContent is the parent chunk's text, when the matched chunk
	// references one. Empty otherwise.
	ContextContent     string
	RawSimilarity      float32
	WeightedSimilarity float32
	LexicalScore       float32
	CombinedScore      float32
	TitleMatched       bool
}
