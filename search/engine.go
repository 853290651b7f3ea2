package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// Engine answers hybrid vector/lexical queries over the chunk store.
// It is stateless per call and performs read-only queries; concurrent
// searches never block each other or indexing.
type Engine struct {
	chunkRepo storage.ChunkRepository
	docRepo   storage.DocumentRepository
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new retrieval engine.
func NewEngine(chunkRepo storage.ChunkRepository, docRepo storage.DocumentRepository, opts ...Option) (*Engine, error) {
	if chunkRepo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if docRepo == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	e := &Engine{
		chunkRepo: chunkRepo,
		docRepo:   docRepo,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// candidate is a scored chunk during search.
type candidate struct {
	chunk              *core.Chunk
	rawSimilarity      float32
	weightedSimilarity float32
	lexicalScore       float32
	combinedScore      float32
	titleMatched       bool
}

// Search scores all matchable chunks against the query, deduplicates to
// one hit per document, and returns hits ranked by (title match, combined
// score). Returns up to opts.MatchCount results.
func (e *Engine) Search(ctx context.Context, queryText string, queryVector []float32, opts *Options) ([]*core.DocumentHit, error) {
	return e.SearchWithMonitor(ctx, queryText, queryVector, opts, nil)
}

// SearchWithMonitor is Search with monitoring callbacks at each stage.
func (e *Engine) SearchWithMonitor(ctx context.Context, queryText string, queryVector []float32, opts *Options, monitor SearchMonitor) ([]*core.DocumentHit, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(queryVector) == 0 {
		return nil, ErrEmptyQueryVector
	}

	monitor.Start(queryText)

	// Resolve document-attribute filters up front; they are hard filters,
	// applied before scoring.
	var allowedDocs map[core.ID]struct{}
	if opts.needsDocumentFilter() {
		var err error
		allowedDocs, err = e.docRepo.FilterDocuments(ctx, opts.FilterDocTypes, opts.FilterWorkspace)
		if err != nil {
			e.logger.Error("error resolving document filters", "err", err)
			return nil, err
		}
		if len(allowedDocs) == 0 {
			monitor.Finish(nil)
			return []*core.DocumentHit{}, nil
		}
	}

	// 1. Candidate scoring over every matchable chunk.
	best := make(map[core.ID]*candidate)
	scored := 0
	err := e.chunkRepo.ScanChunks(ctx, func(chunk *core.Chunk) error {
		// Large content chunks exist only as parent context, never as
		// match candidates.
		if chunk.Type == core.ChunkTypeContentLarge {
			return nil
		}
		if !opts.chunkTypeAllowed(chunk.Type) {
			return nil
		}
		if allowedDocs != nil {
			if _, ok := allowedDocs[chunk.DocumentId]; !ok {
				return nil
			}
		}
		if len(chunk.Vector) == 0 {
			return nil
		}

		rawSimilarity := cosineSimilarity(chunk.Vector, queryVector)
		if rawSimilarity < opts.MatchThreshold {
			return nil
		}

		weighted := rawSimilarity * chunk.SearchWeight
		lexical := lexicalScore(chunk.Content, queryText)
		combined := weighted*opts.VectorWeight + lexical*opts.FulltextWeight

		cand := &candidate{
			chunk:              chunk,
			rawSimilarity:      rawSimilarity,
			weightedSimilarity: weighted,
			lexicalScore:       lexical,
			combinedScore:      combined,
			titleMatched:       chunk.Type == core.ChunkTypeTitle,
		}
		scored++
		monitor.ChunkScored(chunk, rawSimilarity, combined)

		// 2. Document-level deduplication: keep one representative chunk
		// per document.
		current, ok := best[chunk.DocumentId]
		if !ok || betterCandidate(cand, current) {
			best[chunk.DocumentId] = cand
		}
		return nil
	})
	if err != nil {
		e.logger.Error("error scanning chunks", "err", err)
		return nil, err
	}
	monitor.AfterCandidateScoring(scored)
	monitor.AfterDocumentDedup(len(best))

	// 3 & 4. Context expansion, final ordering, truncation.
	hits := make([]*core.DocumentHit, 0, len(best))
	for documentId, cand := range best {
		hit := &core.DocumentHit{
			DocumentId:         documentId,
			ChunkId:            cand.chunk.Id,
			ChunkIndex:         cand.chunk.ChunkIndex,
			ChunkType:          cand.chunk.Type,
			Content:            cand.chunk.Content,
			RawSimilarity:      cand.rawSimilarity,
			WeightedSimilarity: cand.weightedSimilarity,
			LexicalScore:       cand.lexicalScore,
			CombinedScore:      cand.combinedScore,
			TitleMatched:       cand.titleMatched,
		}
		if cand.titleMatched {
			monitor.TitleMatch(documentId, cand.chunk.Id)
		}
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].TitleMatched != hits[j].TitleMatched {
			return hits[i].TitleMatched
		}
		if hits[i].CombinedScore != hits[j].CombinedScore {
			return hits[i].CombinedScore > hits[j].CombinedScore
		}
		return hits[i].DocumentId < hits[j].DocumentId
	})
	if len(hits) > opts.MatchCount {
		hits = hits[:opts.MatchCount]
	}

	// Expand parent context only for hits that survive truncation.
	for _, hit := range hits {
		cand := best[hit.DocumentId]
		if !cand.chunk.HasParent() {
			continue
		}
		parent, err := e.chunkRepo.GetChunk(ctx, cand.chunk.ParentChunkId)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				e.logger.Warn("parent chunk missing",
					"chunk", cand.chunk.Id, "parent", cand.chunk.ParentChunkId)
				continue
			}
			return nil, err
		}
		hit.ContextContent = parent.Content
		monitor.ContextExpanded(cand.chunk.Id, parent.Id)
	}

	monitor.Finish(hits)
	return hits, nil
}

// betterCandidate reports whether a should replace b as a document's
// representative chunk. Title chunks rank above all others regardless of
// score; otherwise higher combined score wins, with chunk index as the
// deterministic tie break.
func betterCandidate(a, b *candidate) bool {
	if a.titleMatched != b.titleMatched {
		return a.titleMatched
	}
	if a.combinedScore != b.combinedScore {
		return a.combinedScore > b.combinedScore
	}
	return a.chunk.ChunkIndex < b.chunk.ChunkIndex
}
