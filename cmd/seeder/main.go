package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/archivist"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/indexing/mock"
)

// seedDoc is a sample document with the source material the mock indexer
// turns into chunks.
type seedDoc struct {
	docType   string
	workspace string
	source    mock.Source
}

var seedDocs = []seedDoc{
	{
		docType:   "note",
		workspace: "engineering",
		source: mock.Source{
			Title:   "Lighthouse maintenance log",
			Summary: "The abandoned lighthouse still broadcasts its warning every third Tuesday.",
			Body:    "The lamp assembly was cleaned and the rotation motor oiled.\n\nThe foghorn remains disconnected pending a replacement diaphragm.",
		},
	},
	{
		docType:   "note",
		workspace: "engineering",
		source: mock.Source{
			Title:   "Server room observations",
			Summary: "The server room developed opinions about the backup schedule.",
			Body:    "Nightly backups now finish before the cooling cycle starts.\n\nRack four hums in a minor key when the load balancer fails over.",
		},
	},
	{
		docType:   "report",
		workspace: "engineering",
		source: mock.Source{
			Title:   "Incident review: the race condition",
			Summary: "The race condition won by not participating.",
			Body:    "Two workers claimed the same slot during the Tuesday deploy.\n\nThe fix serializes claims through a single transactional head read.\n\nNo data was lost; three tasks were retried.",
		},
	},
	{
		docType:   "report",
		workspace: "research",
		source: mock.Source{
			Title:   "Field notes from the coral gardens",
			Summary: "Beneath the waves, coral gardens shimmered in colors unseen.",
			Body:    "Survey transects covered the northern reef shelf.\n\nBleaching was limited to the shallowest two meters.",
		},
	},
	{
		docType:   "letter",
		workspace: "archive",
		source: mock.Source{
			Title:   "Letter concerning the forgotten treasure",
			Summary: "A mysterious map led them to a forgotten treasure.",
			Body:    "The map was folded into the spine of a shipping ledger.\n\nIts route crosses the desert dunes under a pale moon.\n\nWe intend to follow it in the spring.",
		},
	},
	{
		docType:   "letter",
		workspace: "archive",
		source: mock.Source{
			Title:   "Letter from the old manor",
			Summary: "Her laughter echoed through the empty halls of the old manor.",
			Body:    "The east wing is closed for the winter.\n\nThe clock in the hall chimed thirteen times last night, which the caretaker insists is normal.",
		},
	},
	{
		docType:   "note",
		workspace: "research",
		source: mock.Source{
			Title:   "On the enlightenment of random number generators",
			Summary: "The random number generator achieved enlightenment at seed 42.",
			Body:    "Repeated draws from the generator now favor round numbers.\n\nWe suspect the seed schedule rather than the generator itself.",
		},
	},
	{
		docType:   "report",
		workspace: "engineering",
		source: mock.Source{
			Title:   "Quarterly queue health report",
			Summary: "Throughput held steady while retry rates fell by half.",
			Body:    "The pending backlog never exceeded two hundred tasks.\n\nStuck-task requeues ran weekly and recovered eleven tasks.\n\nTerminal failures were traced to two malformed documents.",
		},
	},
	{
		docType:   "note",
		workspace: "archive",
		source: mock.Source{
			Title:   "Catalog of the ancient library",
			Summary: "The ancient library held stories that never faded.",
			Body:    "Shelf inventories were reconciled against the 1911 register.\n\nThree volumes remain missing from the astronomy case.",
		},
	},
	{
		docType:   "note",
		workspace: "research",
		source: mock.Source{
			Title:   "Hummingbird feeding patterns",
			Summary: "The hummingbird hovered beside a vibrant purple flower.",
			Body:    "Feeding visits peaked an hour after sunrise.\n\nThe purple salvia drew four times the visits of the feeder.",
		},
	},
}

var dbPath = flag.String("db", "./archive_db", "path to database directory")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	db, err := archivist.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	indexer := mock.NewMockIndexer()
	pipeline, err := db.NewIndexingPipeline(indexer)
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	for _, seed := range seedDocs {
		doc := &core.Document{
			Id:        core.IDFromContent(seed.source.Title),
			DocType:   seed.docType,
			Workspace: seed.workspace,
		}
		indexer.SetSource(doc.Id, seed.source)

		if _, err := pipeline.IngestDocument(ctx, doc, "create", 0); err != nil {
			panic(err)
		}
	}

	// Drain synchronously so the seeder exits with a fully built index
	processed := pipeline.Drain(ctx)
	fmt.Printf("seeded %d documents, processed %d tasks\n", len(seedDocs), processed)
}
