// Package mock provides a test double implementation of indexing.Indexer.
//
// The mock produces deterministic chunk sets without an external indexing
// service, for use in unit tests and seed programs.
//
// # Usage in Tests
//
//	mockIndexer := mock.NewMockIndexer()
//	mockIndexer.SetSource(docId, mock.Source{
//	    Title:   "Quarterly Report",
//	    Summary: "Revenue grew in the third quarter.",
//	    Body:    "First paragraph.\n\nSecond paragraph.",
//	})
//
//	// Custom behavior injection
//	mockIndexer.IndexDocumentFunc = func(ctx context.Context, doc *core.Document, task *core.IndexTask) ([]*core.Chunk, error) {
//	    return nil, errors.New("boom")
//	}
package mock
