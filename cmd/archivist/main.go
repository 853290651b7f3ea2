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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/embed"
	"github.com/poiesic/archivist/embed/openai"
	"github.com/poiesic/archivist/reindex"
	"github.com/poiesic/archivist/search"
	"github.com/poiesic/archivist/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "archivist",
		Usage: "Document indexing queue and hybrid retrieval engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "enqueue",
				Usage:  "Enqueue an index task for a document",
				Action: enqueueCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "doc",
						Usage:    "Document ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "reason",
						Usage: "Why the document needs indexing (create, update, reindex)",
						Value: "update",
					},
					&cli.IntFlag{
						Name:  "priority",
						Usage: "Task priority (higher is claimed first)",
						Value: 0,
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show queue status and recent failures",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of failed tasks to list",
						Value: 10,
					},
				},
			},
			{
				Name:   "skip",
				Usage:  "Administratively exclude a pending or failed task",
				Action: skipCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "task",
						Usage:    "Task ID",
						Required: true,
					},
				},
			},
			{
				Name:   "requeue-stuck",
				Usage:  "Return tasks abandoned by dead workers to the queue",
				Action: requeueStuckCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Requeue processing tasks started more than this long ago",
						Value: 30 * time.Minute,
					},
				},
			},
			{
				Name:   "reindex-all",
				Usage:  "Schedule an index task for every stored document",
				Action: reindexAllCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "priority",
						Usage: "Priority assigned to scheduled tasks",
						Value: 0,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Search the index with a text query",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.IntFlag{
						Name:  "match-count",
						Usage: "Maximum number of documents to return",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum raw cosine similarity for a chunk to qualify",
						Value: 0,
					},
					&cli.StringSliceFlag{
						Name:  "doc-type",
						Usage: "Restrict results to these document types",
					},
					&cli.StringSliceFlag{
						Name:  "chunk-type",
						Usage: "Restrict scoring to these chunk types",
					},
					&cli.StringFlag{
						Name:  "workspace",
						Usage: "Restrict results to this workspace",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openTaskRepo opens the backend and task repository for queue commands.
func openTaskRepo(dbPath string) (*badger.Backend, *badger.TaskRepository, error) {
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo, err := badger.NewTaskRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create task repository: %w", err)
	}

	return backend, repo, nil
}

func enqueueCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, repo, err := openTaskRepo(c.String("db"))
	if err != nil {
		return err
	}
	defer backend.Close()
	defer repo.Close()

	task, err := repo.Enqueue(ctx, core.ID(c.Uint64("doc")), c.String("reason"), c.Int("priority"))
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	fmt.Printf("task %d: document %d, status %s, reason %q, priority %d\n",
		task.Id, task.DocumentId, task.Status, task.Reason, task.Priority)
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, repo, err := openTaskRepo(c.String("db"))
	if err != nil {
		return err
	}
	defer backend.Close()
	defer repo.Close()

	counts, err := repo.CountTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to count tasks: %w", err)
	}

	statuses := []core.TaskStatus{
		core.TaskStatusPending,
		core.TaskStatusProcessing,
		core.TaskStatusCompleted,
		core.TaskStatusFailed,
		core.TaskStatusSkipped,
	}
	for _, status := range statuses {
		fmt.Printf("%-12s %d\n", status, counts[status])
	}

	failed, err := repo.ListTasksByStatus(ctx, core.TaskStatusFailed, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list failed tasks: %w", err)
	}

	if len(failed) > 0 {
		fmt.Println("\nfailed tasks:")
		for _, task := range failed {
			fmt.Printf("  task %d: document %d, attempts %d/%d, error %q\n",
				task.Id, task.DocumentId, task.AttemptCount, task.MaxAttempts, task.LastError)
		}
	}

	return nil
}

func skipCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, repo, err := openTaskRepo(c.String("db"))
	if err != nil {
		return err
	}
	defer backend.Close()
	defer repo.Close()

	taskId := core.ID(c.Uint64("task"))
	if err := repo.Skip(ctx, taskId); err != nil {
		return fmt.Errorf("skip failed: %w", err)
	}

	fmt.Printf("task %d skipped\n", taskId)
	return nil
}

func requeueStuckCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, repo, err := openTaskRepo(c.String("db"))
	if err != nil {
		return err
	}
	defer backend.Close()
	defer repo.Close()

	requeued, err := repo.RequeueStuck(ctx, c.Duration("older-than"))
	if err != nil {
		return fmt.Errorf("requeue failed: %w", err)
	}

	fmt.Printf("requeued %d stuck tasks\n", requeued)
	return nil
}

func reindexAllCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create document repository: %w", err)
	}
	defer docRepo.Close()

	taskRepo, err := badger.NewTaskRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create task repository: %w", err)
	}
	defer taskRepo.Close()

	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Priority:       c.Int("priority"),
	}

	// Validate config
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer, err := reindex.NewReindexer(docRepo, taskRepo, config, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n\n", dbPath)

	if _, err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindex scheduling failed: %w", err)
	}

	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	chunkRepo, err := badger.NewChunkRepository(backend, nil)
	if err != nil {
		return fmt.Errorf("failed to create chunk repository: %w", err)
	}
	defer chunkRepo.Close()

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create document repository: %w", err)
	}
	defer docRepo.Close()

	embedConfig := embed.NewConfig(
		embed.WithHost(c.String("embedding-host")),
		embed.WithModel(c.String("embedding-model")),
	)
	embedder, err := openai.NewEmbedder(embedConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	engine, err := search.NewEngine(chunkRepo, docRepo)
	if err != nil {
		return err
	}

	opts := search.DefaultOptions()
	opts.MatchCount = c.Int("match-count")
	opts.MatchThreshold = float32(c.Float64("threshold"))
	opts.FilterDocTypes = c.StringSlice("doc-type")
	opts.FilterWorkspace = c.String("workspace")
	for _, name := range c.StringSlice("chunk-type") {
		chunkType, err := core.ParseChunkType(name)
		if err != nil {
			return fmt.Errorf("invalid chunk-type %q: %w", name, err)
		}
		opts.FilterChunkTypes = append(opts.FilterChunkTypes, chunkType)
	}

	queryText := c.String("query")
	vector, err := embedder.EmbedText(ctx, queryText)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := engine.Search(ctx, queryText, vector, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(hits))
	for i, hit := range hits {
		marker := " "
		if hit.TitleMatched {
			marker = "T"
		}
		fmt.Printf("%2d %s doc %d chunk %d (%s) [%.3f] %s\n",
			i+1, marker, hit.DocumentId, hit.ChunkId, hit.ChunkType, hit.CombinedScore,
			truncate(hit.Content, 80))
	}

	return nil
}

// truncate shortens s for single-line display.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
