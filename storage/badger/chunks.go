package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	weights core.WeightTable
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
// The weight table fills in SearchWeight for chunks written without an
// explicit override; pass nil for core.DefaultWeights().
func NewChunkRepository(backend *Backend, weights core.WeightTable) (*ChunkRepository, error) {
	if weights == nil {
		weights = core.DefaultWeights()
	}
	return &ChunkRepository{
		backend: backend,
		weights: weights,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// ReplaceDocumentChunks atomically replaces all chunks for a document.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, documentId core.ID, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	if documentId == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidChunk, core.ErrMissingDocumentId)
	}

	// Assign weights and content-based IDs before validation so the batch
	// validator can resolve parent references.
	r.weights.Apply(chunks...)
	for _, chunk := range chunks {
		if chunk.Id == 0 {
			chunk.Id = chunkContentID(chunk)
		}
	}
	if err := core.ValidateChunkBatch(documentId, chunks); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Drop the previous generation inside the same transaction, so a
		// reader sees all-old or all-new chunks, never a mix.
		if err := r.deleteDocumentChunks(tx, documentId); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, chunk := range chunks {
			chunk.InsertedAt = now
			chunk.UpdatedAt = now

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			docKey := makeChunkDocKey(documentId, chunk.ChunkIndex)
			if err := tx.Set(docKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentChunks retrieves all chunks of a document, ordered by chunk index.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentId core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkDocKey(documentId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkId core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkId, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeChunkKey(chunkId))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteDocumentChunks removes all chunks of a document.
func (r *ChunkRepository) DeleteDocumentChunks(ctx context.Context, documentId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := r.deleteDocumentChunks(tx, documentId); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ScanChunks iterates over every stored chunk in a read-only snapshot.
func (r *ChunkRepository) ScanChunks(ctx context.Context, fn func(*core.Chunk) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var chunk *core.Chunk
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			}); err != nil {
				return err
			}

			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Helper methods

// deleteDocumentChunks removes a document's chunks and index entries
// within the transaction.
func (r *ChunkRepository) deleteDocumentChunks(tx *badger.Txn, documentId core.ID) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkDocKey(documentId)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var indexKeys [][]byte
	var chunkIds []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		indexKeys = append(indexKeys, item.KeyCopy(nil))

		var chunkId core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			chunkId, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}
		chunkIds = append(chunkIds, chunkId)
	}

	for _, key := range indexKeys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	for _, chunkId := range chunkIds {
		if err := tx.Delete(makeChunkKey(chunkId)); err != nil {
			return err
		}
	}
	return nil
}

// readChunk reads a chunk from the transaction. Returns nil when missing.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// chunkContentID derives a deterministic chunk ID from the chunk's
// position and content, so rewriting identical content keeps stable IDs
// and parent references can be computed before insertion.
func chunkContentID(chunk *core.Chunk) core.ID {
	return core.IDFromContent(fmt.Sprintf("%d/%d/%s/%s", chunk.DocumentId, chunk.ChunkIndex, chunk.Type, chunk.Content))
}
