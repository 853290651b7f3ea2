package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

func newTestDocumentRepo(t *testing.T) *DocumentRepository {
	backend, err := OpenBackend("", true)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}

	repo, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		t.Fatalf("Failed to create document repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestDocumentBasics(t *testing.T) {
	repo := newTestDocumentRepo(t)
	ctx := context.Background()

	doc := &core.Document{Id: 42, DocType: "report", Workspace: "research"}

	stored, err := repo.PutDocuments(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to put document: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(stored))
	}
	if stored[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	got, err := repo.GetDocument(ctx, 42)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if got.DocType != "report" || got.Workspace != "research" {
		t.Fatalf("Unexpected document %+v", got)
	}

	if _, err := repo.GetDocument(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	repo := newTestDocumentRepo(t)
	ctx := context.Background()

	if _, err := repo.PutDocuments(ctx, &core.Document{Id: 1, DocType: "note"}); err != nil {
		t.Fatalf("Failed to put document: %v", err)
	}

	if err := repo.DeleteDocument(ctx, 1); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}
	if _, err := repo.GetDocument(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteDocument(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	repo := newTestDocumentRepo(t)
	ctx := context.Background()

	// Inserted out of order; listed in ID order
	for _, id := range []core.ID{30, 10, 20, 40} {
		if _, err := repo.PutDocuments(ctx, &core.Document{Id: id, DocType: "note"}); err != nil {
			t.Fatalf("Failed to put document: %v", err)
		}
	}

	page, err := repo.ListDocuments(ctx, 0, 3)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(page))
	}
	if page[0].Id != 10 || page[1].Id != 20 || page[2].Id != 30 {
		t.Fatalf("Expected IDs 10,20,30, got %d,%d,%d", page[0].Id, page[1].Id, page[2].Id)
	}

	// Keyset pagination continues after the last ID seen
	page, err = repo.ListDocuments(ctx, 30, 3)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(page) != 1 || page[0].Id != 40 {
		t.Fatalf("Expected only ID 40, got %v", page)
	}

	page, err = repo.ListDocuments(ctx, 40, 3)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("Expected empty page, got %d documents", len(page))
	}
}

func TestFilterDocuments(t *testing.T) {
	repo := newTestDocumentRepo(t)
	ctx := context.Background()

	docs := []*core.Document{
		{Id: 1, DocType: "note", Workspace: "eng"},
		{Id: 2, DocType: "report", Workspace: "eng"},
		{Id: 3, DocType: "note", Workspace: "research"},
		{Id: 4, DocType: "letter", Workspace: "archive"},
	}
	if _, err := repo.PutDocuments(ctx, docs...); err != nil {
		t.Fatalf("Failed to put documents: %v", err)
	}

	tests := []struct {
		name      string
		docTypes  []string
		workspace string
		want      []core.ID
	}{
		{"no filters matches all", nil, "", []core.ID{1, 2, 3, 4}},
		{"doc type only", []string{"note"}, "", []core.ID{1, 3}},
		{"multiple doc types", []string{"note", "report"}, "", []core.ID{1, 2, 3}},
		{"workspace only", nil, "eng", []core.ID{1, 2}},
		{"both filters", []string{"note"}, "eng", []core.ID{1}},
		{"no match", []string{"memo"}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := repo.FilterDocuments(ctx, tt.docTypes, tt.workspace)
			if err != nil {
				t.Fatalf("FilterDocuments failed: %v", err)
			}
			if len(allowed) != len(tt.want) {
				t.Fatalf("Expected %d matches, got %d", len(tt.want), len(allowed))
			}
			for _, id := range tt.want {
				if _, ok := allowed[id]; !ok {
					t.Fatalf("Expected document %d in result", id)
				}
			}
		})
	}
}
