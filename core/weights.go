package core

// WeightTable maps chunk types to their default search weights. Weights
// are consulted when chunks are written, so new chunk types can be tuned
// without code changes; a chunk with an explicit positive SearchWeight
// keeps it.
type WeightTable map[ChunkType]float32

// DefaultWeights returns the standard search weight per chunk type.
// Title is weighted highest; bulk content is the 1.0 baseline.
func DefaultWeights() WeightTable {
	return WeightTable{
		ChunkTypeTitle:         2.0,
		ChunkTypePersons:       1.3,
		ChunkTypeOrganizations: 1.3,
		ChunkTypeSummary:       1.5,
		ChunkTypeDate:          0.8,
		ChunkTypeTags:          1.2,
		ChunkTypePeople:        1.3,
		ChunkTypeContentSmall:  1.0,
		ChunkTypeContentLarge:  1.0,
		ChunkTypeSynthetic:     1.1,
	}
}

// WeightFor returns the table's weight for a chunk type, falling back to
// 1.0 for types the table does not mention.
func (w WeightTable) WeightFor(t ChunkType) float32 {
	if weight, ok := w[t]; ok {
		return weight
	}
	return 1.0
}

// Apply fills in SearchWeight from the table for every chunk that does not
// carry an explicit override.
func (w WeightTable) Apply(chunks ...*Chunk) {
	for _, chunk := range chunks {
		if chunk.SearchWeight <= 0 {
			chunk.SearchWeight = w.WeightFor(chunk.Type)
		}
	}
}
