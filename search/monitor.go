package search

import (
	"github.com/poiesic/archivist/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	ChunkScored(chunk *core.Chunk, rawSimilarity, combinedScore float32)
	AfterCandidateScoring(candidates int)
	AfterDocumentDedup(documents int)
	TitleMatch(documentId core.ID, chunkId core.ID)
	ContextExpanded(chunkId, parentId core.ID)
	Finish(hits []*core.DocumentHit)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                 {}
func (n *noopMonitor) ChunkScored(_ *core.Chunk, _, _ float32)        {}
func (n *noopMonitor) AfterCandidateScoring(_ int)                    {}
func (n *noopMonitor) AfterDocumentDedup(_ int)                       {}
func (n *noopMonitor) TitleMatch(_ core.ID, _ core.ID)                {}
func (n *noopMonitor) ContextExpanded(_ core.ID, _ core.ID)           {}
func (n *noopMonitor) Finish(_ []*core.DocumentHit)                   {}
