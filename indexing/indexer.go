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


package indexing

import (
	"context"

	"github.com/poiesic/archivist/core"
)

// Indexer turns a document into its searchable chunks. Implementations read
// the document's source content, split it, and attach embedding vectors.
//
// Chunks may be returned without SearchWeight set; the chunk repository
// applies the weight table on write. Vectors do not need to be normalized.
type Indexer interface {
	// IndexDocument produces the full replacement chunk set for the document.
	// The task is provided for reason-aware indexers (an "update" may reuse
	// cached work that a "create" cannot).
	IndexDocument(ctx context.Context, doc *core.Document, task *core.IndexTask) ([]*core.Chunk, error)
}
