package search

import (
	"fmt"

	"github.com/poiesic/archivist/core"
)

// Default option values.
const (
	DefaultMatchCount     = 10
	DefaultVectorWeight   = 0.7
	DefaultFulltextWeight = 0.3
)

// Options configures a single search call.
//
// VectorWeight and FulltextWeight need not sum to 1; the combined score is
// a literal weighted sum, not a normalized average. Callers are responsible
// for weight calibration.
type Options struct {
	// MatchThreshold is the minimum raw vector similarity for a chunk to
	// be considered at all. Default 0.
	MatchThreshold float32

	// MatchCount is the maximum number of document hits returned.
	// Must be positive. Default 10.
	MatchCount int

	// VectorWeight multiplies the weighted vector similarity. Default 0.7.
	VectorWeight float32

	// FulltextWeight multiplies the lexical score. Default 0.3.
	FulltextWeight float32

	// FilterDocTypes restricts results to documents of these types.
	// Empty means no doc-type filter.
	FilterDocTypes []string

	// FilterChunkTypes restricts matching to these chunk types.
	// Empty means every matchable chunk type.
	FilterChunkTypes []core.ChunkType

	// FilterWorkspace restricts results to one workspace.
	// Empty means no workspace filter.
	FilterWorkspace string
}

// DefaultOptions returns the standard search configuration.
func DefaultOptions() *Options {
	return &Options{
		MatchCount:     DefaultMatchCount,
		VectorWeight:   DefaultVectorWeight,
		FulltextWeight: DefaultFulltextWeight,
	}
}

// Validate rejects malformed options. Invalid values are an input error,
// never clamped.
func (o *Options) Validate() error {
	if o.MatchCount <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMatchCount, o.MatchCount)
	}
	for _, t := range o.FilterChunkTypes {
		if err := core.ValidateChunkType(t); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFilterChunkType, err)
		}
	}
	return nil
}

// chunkTypeAllowed reports whether a chunk type passes the filter.
func (o *Options) chunkTypeAllowed(t core.ChunkType) bool {
	if len(o.FilterChunkTypes) == 0 {
		return true
	}
	for _, allowed := range o.FilterChunkTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

// needsDocumentFilter reports whether document attributes restrict the search.
func (o *Options) needsDocumentFilter() bool {
	return len(o.FilterDocTypes) > 0 || o.FilterWorkspace != ""
}
