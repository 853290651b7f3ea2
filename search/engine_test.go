package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
	"github.com/poiesic/archivist/storage/badger"
)

func setupTestEngine(t *testing.T) (*Engine, storage.ChunkRepository, storage.DocumentRepository) {
	chunkRepo, docRepo, taskRepo, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		taskRepo.Close()
		docRepo.Close()
		chunkRepo.Close()
		backend.Close()
	})

	engine, err := NewEngine(chunkRepo, docRepo)
	require.NoError(t, err)
	return engine, chunkRepo, docRepo
}

func seedDocument(t *testing.T, docRepo storage.DocumentRepository, chunkRepo storage.ChunkRepository, doc *core.Document, chunks ...*core.Chunk) {
	t.Helper()
	ctx := context.Background()
	_, err := docRepo.PutDocuments(ctx, doc)
	require.NoError(t, err)
	_, err = chunkRepo.ReplaceDocumentChunks(ctx, doc.Id, chunks...)
	require.NoError(t, err)
}

// vectorOnlyOptions removes the lexical contribution so scores follow the
// vector similarity alone.
func vectorOnlyOptions() *Options {
	opts := DefaultOptions()
	opts.VectorWeight = 1.0
	opts.FulltextWeight = 0.0
	return opts
}

func TestNewEngine_Validation(t *testing.T) {
	chunkRepo, docRepo, taskRepo, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		taskRepo.Close()
		docRepo.Close()
		chunkRepo.Close()
		backend.Close()
	}()

	_, err = NewEngine(nil, docRepo)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewEngine(chunkRepo, nil)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)
}

func TestSearch_EmptyQueryVector(t *testing.T) {
	engine, _, _ := setupTestEngine(t)

	_, err := engine.Search(context.Background(), "query", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyQueryVector)
}

func TestSearch_InvalidOptions(t *testing.T) {
	engine, _, _ := setupTestEngine(t)
	ctx := context.Background()
	query := []float32{1, 0, 0}

	_, err := engine.Search(ctx, "query", query, &Options{MatchCount: 0, VectorWeight: 1})
	assert.ErrorIs(t, err, ErrInvalidMatchCount)

	opts := DefaultOptions()
	opts.FilterChunkTypes = []core.ChunkType{core.ChunkType(99)}
	_, err = engine.Search(ctx, "query", query, opts)
	assert.ErrorIs(t, err, ErrInvalidFilterChunkType)
}

func TestSearch_NilOptionsUseDefaults(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "harbor light", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)

	hits, err := engine.Search(context.Background(), "harbor", []float32{1, 0, 0}, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ID(1), hits[0].DocumentId)
}

func TestSearch_RanksByCombinedScore(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	// Cosine against the query {1,0,0}: doc 1 scores 1.0, doc 2 scores 0.8,
	// doc 3 scores 0.
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "alpha", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 2, DocType: "note"},
		&core.Chunk{DocumentId: 2, ChunkIndex: 0, Content: "beta", Type: core.ChunkTypeContentSmall, Vector: []float32{0.8, 0.6, 0}},
	)
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 3, DocType: "note"},
		&core.Chunk{DocumentId: 3, ChunkIndex: 0, Content: "gamma", Type: core.ChunkTypeContentSmall, Vector: []float32{0, 1, 0}},
	)

	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, vectorOnlyOptions())
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, core.ID(1), hits[0].DocumentId)
	assert.Equal(t, core.ID(2), hits[1].DocumentId)
	assert.Equal(t, core.ID(3), hits[2].DocumentId)
	assert.InDelta(t, 1.0, hits[0].CombinedScore, 1e-4)
	assert.InDelta(t, 0.8, hits[1].CombinedScore, 1e-4)
}

func TestSearch_TitleMatchRanksFirst(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	// Doc 1 has a perfect content match; doc 2 has a weaker title match.
	// Title matches outrank everything regardless of score.
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "body text", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 2, DocType: "note"},
		&core.Chunk{DocumentId: 2, ChunkIndex: 0, Content: "Some Title", Type: core.ChunkTypeTitle, Vector: []float32{0.6, 0.8, 0}},
	)

	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, vectorOnlyOptions())
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, core.ID(2), hits[0].DocumentId)
	assert.True(t, hits[0].TitleMatched)
	assert.Equal(t, core.ID(1), hits[1].DocumentId)
	assert.False(t, hits[1].TitleMatched)
}

func TestSearch_TitleWeightApplied(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "Quarterly Report", Type: core.ChunkTypeTitle, Vector: []float32{1, 0, 0}},
	)

	// Raw similarity 1.0, title weight 2.0, default vector weight 0.7.
	// The query shares no terms, so the lexical part contributes nothing.
	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].RawSimilarity, 1e-4)
	assert.InDelta(t, 2.0, hits[0].WeightedSimilarity, 1e-4)
	assert.InDelta(t, 0.0, hits[0].LexicalScore, 1e-4)
	assert.InDelta(t, 1.4, hits[0].CombinedScore, 1e-4)
}

func TestSearch_LexicalContribution(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "lighthouse keeper", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)

	// Full coverage with a single occurrence saturates at 1/2.
	opts := DefaultOptions()
	opts.VectorWeight = 0.0
	opts.FulltextWeight = 1.0
	hits, err := engine.Search(context.Background(), "lighthouse", []float32{1, 0, 0}, opts)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.5, hits[0].LexicalScore, 1e-4)
	assert.InDelta(t, 0.5, hits[0].CombinedScore, 1e-4)
}

func TestSearch_MatchThreshold(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "close", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 2, DocType: "note"},
		&core.Chunk{DocumentId: 2, ChunkIndex: 0, Content: "far", Type: core.ChunkTypeContentSmall, Vector: []float32{0.6, 0.8, 0}},
	)

	opts := vectorOnlyOptions()
	opts.MatchThreshold = 0.8
	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, opts)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ID(1), hits[0].DocumentId)
}

func TestSearch_OneHitPerDocument(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "weaker", Type: core.ChunkTypeContentSmall, Vector: []float32{0.6, 0.8, 0}},
		&core.Chunk{DocumentId: 1, ChunkIndex: 1, Content: "stronger", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)

	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, vectorOnlyOptions())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].ChunkIndex)
	assert.Equal(t, "stronger", hits[0].Content)
}

func TestSearch_TitleRepresentsDocumentDespiteLowerScore(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	// The content chunk scores 0.9 and the title only 0.4, with the title's
	// default weight overridden to 1.0 so its combined score is genuinely
	// lower. The title chunk must still be the document's representative.
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "Faint Title", Type: core.ChunkTypeTitle, SearchWeight: 1.0, Vector: []float32{0.4, 0.916515139, 0}},
		&core.Chunk{DocumentId: 1, ChunkIndex: 1, Content: "strong body match", Type: core.ChunkTypeContentSmall, Vector: []float32{0.9, 0.435889894, 0}},
	)

	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, vectorOnlyOptions())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ChunkTypeTitle, hits[0].ChunkType)
	assert.Equal(t, "Faint Title", hits[0].Content)
	assert.True(t, hits[0].TitleMatched)
	assert.InDelta(t, 0.4, hits[0].CombinedScore, 1e-4)
}

func TestSearch_EqualScoresPreferLowerChunkIndex(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "first", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
		&core.Chunk{DocumentId: 1, ChunkIndex: 1, Content: "second", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)

	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, vectorOnlyOptions())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].ChunkIndex)
}

func TestSearch_ContentLargeNeverMatches(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "a whole section", Type: core.ChunkTypeContentLarge, Vector: []float32{1, 0, 0}},
	)

	hits, err := engine.Search(context.Background(), "section", []float32{1, 0, 0}, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_SkipsChunksWithoutVector(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "not yet embedded", Type: core.ChunkTypeContentSmall},
	)

	hits, err := engine.Search(context.Background(), "embedded", []float32{1, 0, 0}, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_ParentContextExpansion(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	parent := &core.Chunk{
		Id:         core.IDFromContent("section"),
		DocumentId: 1, ChunkIndex: 0,
		Content: "the full section this sentence came from",
		Type:    core.ChunkTypeContentLarge,
	}
	child := &core.Chunk{
		DocumentId: 1, ChunkIndex: 1,
		Content:       "one matching sentence",
		Type:          core.ChunkTypeContentSmall,
		Vector:        []float32{1, 0, 0},
		ParentChunkId: parent.Id,
	}
	seedDocument(t, docRepo, chunkRepo, &core.Document{Id: 1, DocType: "note"}, parent, child)

	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "one matching sentence", hits[0].Content)
	assert.Equal(t, parent.Content, hits[0].ContextContent)
}

func TestSearch_MatchCountTruncates(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	vectors := [][]float32{
		{1, 0, 0},
		{0.9, 0.435889894, 0},
		{0.8, 0.6, 0},
		{0.7, 0.714142843, 0},
		{0.6, 0.8, 0},
	}
	for i, v := range vectors {
		id := core.ID(i + 1)
		seedDocument(t, docRepo, chunkRepo,
			&core.Document{Id: id, DocType: "note"},
			&core.Chunk{DocumentId: id, ChunkIndex: 0, Content: "body", Type: core.ChunkTypeContentSmall, Vector: v},
		)
	}

	opts := vectorOnlyOptions()
	opts.MatchCount = 2
	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, opts)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, core.ID(1), hits[0].DocumentId)
	assert.Equal(t, core.ID(2), hits[1].DocumentId)
}

func TestSearch_DocumentFilters(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note", Workspace: "eng"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "body", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 2, DocType: "report", Workspace: "eng"},
		&core.Chunk{DocumentId: 2, ChunkIndex: 0, Content: "body", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 3, DocType: "note", Workspace: "research"},
		&core.Chunk{DocumentId: 3, ChunkIndex: 0, Content: "body", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)

	ctx := context.Background()
	query := []float32{1, 0, 0}

	opts := vectorOnlyOptions()
	opts.FilterWorkspace = "eng"
	hits, err := engine.Search(ctx, "zzz", query, opts)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	opts = vectorOnlyOptions()
	opts.FilterDocTypes = []string{"report"}
	hits, err = engine.Search(ctx, "zzz", query, opts)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ID(2), hits[0].DocumentId)

	opts = vectorOnlyOptions()
	opts.FilterDocTypes = []string{"note"}
	opts.FilterWorkspace = "research"
	hits, err = engine.Search(ctx, "zzz", query, opts)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ID(3), hits[0].DocumentId)

	// A filter matching no documents short-circuits to an empty result
	opts = vectorOnlyOptions()
	opts.FilterWorkspace = "nowhere"
	hits, err = engine.Search(ctx, "zzz", query, opts)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_ChunkTypeFilter(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "The Title", Type: core.ChunkTypeTitle, Vector: []float32{0.6, 0.8, 0}},
		&core.Chunk{DocumentId: 1, ChunkIndex: 1, Content: "the body", Type: core.ChunkTypeContentSmall, Vector: []float32{1, 0, 0}},
	)

	opts := vectorOnlyOptions()
	opts.FilterChunkTypes = []core.ChunkType{core.ChunkTypeContentSmall}
	hits, err := engine.Search(context.Background(), "zzz", []float32{1, 0, 0}, opts)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ChunkTypeContentSmall, hits[0].ChunkType)
	assert.False(t, hits[0].TitleMatched)
}

// recordingMonitor counts monitor callbacks for assertions.
type recordingMonitor struct {
	started    int
	scored     int
	candidates int
	documents  int
	titles     int
	expansions int
	finished   int
}

var _ SearchMonitor = (*recordingMonitor)(nil)

func (m *recordingMonitor) Start(_ string)                          { m.started++ }
func (m *recordingMonitor) ChunkScored(_ *core.Chunk, _, _ float32) { m.scored++ }
func (m *recordingMonitor) AfterCandidateScoring(n int)             { m.candidates = n }
func (m *recordingMonitor) AfterDocumentDedup(n int)                { m.documents = n }
func (m *recordingMonitor) TitleMatch(_ core.ID, _ core.ID)         { m.titles++ }
func (m *recordingMonitor) ContextExpanded(_, _ core.ID)            { m.expansions++ }
func (m *recordingMonitor) Finish(_ []*core.DocumentHit)            { m.finished++ }

func TestSearchWithMonitor(t *testing.T) {
	engine, chunkRepo, docRepo := setupTestEngine(t)

	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 1, DocType: "note"},
		&core.Chunk{DocumentId: 1, ChunkIndex: 0, Content: "A Title", Type: core.ChunkTypeTitle, Vector: []float32{1, 0, 0}},
		&core.Chunk{DocumentId: 1, ChunkIndex: 1, Content: "the body", Type: core.ChunkTypeContentSmall, Vector: []float32{0.8, 0.6, 0}},
	)
	seedDocument(t, docRepo, chunkRepo,
		&core.Document{Id: 2, DocType: "note"},
		&core.Chunk{DocumentId: 2, ChunkIndex: 0, Content: "other body", Type: core.ChunkTypeContentSmall, Vector: []float32{0.6, 0.8, 0}},
	)

	monitor := &recordingMonitor{}
	hits, err := engine.SearchWithMonitor(context.Background(), "zzz", []float32{1, 0, 0}, nil, monitor)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, 1, monitor.started)
	assert.Equal(t, 3, monitor.scored)
	assert.Equal(t, 3, monitor.candidates)
	assert.Equal(t, 2, monitor.documents)
	assert.Equal(t, 1, monitor.titles)
	assert.Equal(t, 0, monitor.expansions)
	assert.Equal(t, 1, monitor.finished)
}
