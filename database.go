// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package archivist

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/embed"
	"github.com/poiesic/archivist/embed/openai"
	"github.com/poiesic/archivist/indexing"
	"github.com/poiesic/archivist/reindex"
	"github.com/poiesic/archivist/search"
	"github.com/poiesic/archivist/storage"
	"github.com/poiesic/archivist/storage/badger"
)

type Database struct {
	backend   *badger.Backend
	chunkRepo storage.ChunkRepository
	docRepo   storage.DocumentRepository
	taskRepo  storage.TaskRepository
	embedder  embed.Embedder
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	embedConfig *embed.Config
	weights     core.WeightTable
	taskOpts    []badger.TaskOption
	inMemory    bool
}

// WithEmbedConfig sets the embedding service configuration.
func WithEmbedConfig(config *embed.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.embedConfig = config
		}
	}
}

// WithWeights sets the chunk type weight table applied when chunks are stored.
func WithWeights(weights core.WeightTable) DatabaseOption {
	return func(o *databaseOptions) {
		o.weights = weights
	}
}

// WithTaskOptions passes options through to the task repository.
func WithTaskOptions(opts ...badger.TaskOption) DatabaseOption {
	return func(o *databaseOptions) {
		o.taskOpts = append(o.taskOpts, opts...)
	}
}

// WithInMemory opens the backend without on-disk persistence.
// Intended for tests and experiments.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		embedConfig: embed.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend, options.weights)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create document repository
	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create task repository
	taskRepo, err := badger.NewTaskRepository(backend, options.taskOpts...)
	if err != nil {
		docRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create embedder with configured settings
	embedder, err := openai.NewEmbedder(options.embedConfig)
	if err != nil {
		taskRepo.Close()
		docRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		chunkRepo: chunkRepo,
		docRepo:   docRepo,
		taskRepo:  taskRepo,
		embedder:  embedder,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close repositories
	if err := db.taskRepo.Close(); err != nil {
		db.logger.Error("error closing task repository", "err", err)
		return err
	}
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) TaskRepository() storage.TaskRepository {
	return db.taskRepo
}

func (db *Database) Embedder() embed.Embedder {
	return db.embedder
}

func (db *Database) NewIndexingPipeline(indexer indexing.Indexer, opts ...indexing.Option) (*indexing.Pipeline, error) {
	return indexing.NewPipeline(db.taskRepo, db.chunkRepo, db.docRepo, indexer, opts...)
}

func (db *Database) NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	return search.NewEngine(db.chunkRepo, db.docRepo, opts...)
}

func (db *Database) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(db.docRepo, db.taskRepo, config, progress)
}

// SearchText embeds the query text and runs a search with it. The text is
// used both for the embedding and for lexical scoring.
func (db *Database) SearchText(ctx context.Context, queryText string, opts *search.Options) ([]*core.DocumentHit, error) {
	vector, err := db.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, err
	}

	engine, err := db.NewSearchEngine()
	if err != nil {
		return nil, err
	}

	return engine.Search(ctx, queryText, vector, opts)
}
