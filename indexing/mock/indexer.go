package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poiesic/archivist/core"
	embedmock "github.com/poiesic/archivist/embed/mock"
)

// vectorDim is the dimensionality of generated mock embeddings.
const vectorDim = 384

// Source is the raw material the mock indexer chunks for a document.
type Source struct {
	Title   string
	Summary string
	Body    string
}

// MockIndexer is a test double for indexing.Indexer.
// It allows custom behavior injection via a function field.
type MockIndexer struct {
	// IndexDocumentFunc is called by IndexDocument if set.
	// If nil, uses default deterministic behavior.
	IndexDocumentFunc func(ctx context.Context, doc *core.Document, task *core.IndexTask) ([]*core.Chunk, error)

	mu        sync.Mutex
	sources   map[core.ID]Source
	callCount int
}

// NewMockIndexer creates a mock indexer with default deterministic behavior.
func NewMockIndexer() *MockIndexer {
	return &MockIndexer{
		sources: make(map[core.ID]Source),
	}
}

// SetSource registers the source material used when indexing the document.
// Documents without a registered source get placeholder content derived from
// their ID.
func (m *MockIndexer) SetSource(documentId core.ID, src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[documentId] = src
}

// IndexDocument produces a deterministic chunk set for the document: a title
// chunk, a summary chunk, a content_large parent holding the whole body, and
// one content_small child per body paragraph.
func (m *MockIndexer) IndexDocument(ctx context.Context, doc *core.Document, task *core.IndexTask) ([]*core.Chunk, error) {
	m.mu.Lock()
	m.callCount++
	src, ok := m.sources[doc.Id]
	m.mu.Unlock()

	if m.IndexDocumentFunc != nil {
		return m.IndexDocumentFunc(ctx, doc, task)
	}

	if !ok {
		src = Source{
			Title:   fmt.Sprintf("document %d", doc.Id),
			Summary: fmt.Sprintf("placeholder summary for document %d", doc.Id),
			Body:    fmt.Sprintf("placeholder body for document %d", doc.Id),
		}
	}

	chunks := []*core.Chunk{
		newChunk(doc.Id, 0, core.ChunkTypeTitle, src.Title),
		newChunk(doc.Id, 1, core.ChunkTypeSummary, src.Summary),
	}

	parent := newChunk(doc.Id, 2, core.ChunkTypeContentLarge, src.Body)
	chunks = append(chunks, parent)

	index := 3
	for _, paragraph := range strings.Split(src.Body, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		child := newChunk(doc.Id, index, core.ChunkTypeContentSmall, paragraph)
		child.ParentChunkId = parent.Id
		chunks = append(chunks, child)
		index++
	}

	return chunks, nil
}

// CallCount returns the number of times IndexDocument was called.
func (m *MockIndexer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count, registered sources, and injected behavior.
func (m *MockIndexer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.sources = make(map[core.ID]Source)
	m.IndexDocumentFunc = nil
}

// newChunk builds a chunk with a content-based ID and a deterministic
// embedding. IDs are assigned here so parent references resolve within the
// batch before storage sees it.
func newChunk(documentId core.ID, index int, chunkType core.ChunkType, content string) *core.Chunk {
	return &core.Chunk{
		Id:         core.IDFromContent(fmt.Sprintf("%d/%d/%s/%s", documentId, index, chunkType, content)),
		DocumentId: documentId,
		ChunkIndex: index,
		Content:    content,
		Type:       chunkType,
		Vector:     embedmock.DeterministicVector(content, vectorDim),
	}
}
