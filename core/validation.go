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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Id must be set (documents are identified by the ingestion system)
//
// NOT validated:
//   - DocType and Workspace (free-form, owned by the ingestion collaborator)
//   - Timestamps (set by storage on insert when zero)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.Id == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	return nil
}

// ValidateChunkType validates that a ChunkType has a recognized value.
func ValidateChunkType(t ChunkType) error {
	if _, ok := chunkTypeNames[t]; !ok {
		return fmt.Errorf("%w: value %d", ErrInvalidChunkType, t)
	}
	return nil
}

// ValidateTaskStatus validates that a TaskStatus has a recognized value.
func ValidateTaskStatus(s TaskStatus) error {
	if _, ok := taskStatusNames[s]; !ok {
		return fmt.Errorf("%w: value %d", ErrInvalidTaskStatus, s)
	}
	return nil
}

// ValidateChunk validates a single Chunk according to domain rules.
//
// Validation rules:
//   - DocumentId must be set
//   - Content must not be empty
//   - Type must be a recognized ChunkType
//   - SearchWeight must be positive
//
// NOT validated (requires the full document batch):
//   - Parent relation shape (see ValidateChunkBatch)
//   - Vector (can be empty until the indexer embeds it)
//   - ID (0 is valid; storage assigns content-based IDs)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingDocumentId)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if err := ValidateChunkType(chunk.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	if chunk.SearchWeight <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidSearchWeight)
	}

	return nil
}

// ValidateChunkBatch validates a full replacement chunk set for one document.
// Parent references are resolved against the batch itself: a document's
// chunks are always written together, so a parent outside the batch cannot
// exist after the replacement commits.
//
// Validation rules (in addition to ValidateChunk per chunk):
//   - all chunks share the same DocumentId
//   - ChunkIndex values are unique within the batch
//   - a ParentChunkId resolves to a chunk in the batch
//   - a parent chunk has no parent of its own (strict two-level tree,
//     enforced here rather than by traversal guards at read time)
func ValidateChunkBatch(documentId ID, chunks []*Chunk) error {
	byId := make(map[ID]*Chunk, len(chunks))
	seenIndex := make(map[int]bool, len(chunks))

	for _, chunk := range chunks {
		if err := ValidateChunk(chunk); err != nil {
			return err
		}
		if chunk.DocumentId != documentId {
			return fmt.Errorf("%w: chunk %d belongs to document %d, not %d",
				ErrInvalidChunk, chunk.ChunkIndex, chunk.DocumentId, documentId)
		}
		if seenIndex[chunk.ChunkIndex] {
			return fmt.Errorf("%w: %w: index %d", ErrInvalidChunk, ErrDuplicateChunkIndex, chunk.ChunkIndex)
		}
		seenIndex[chunk.ChunkIndex] = true
		if chunk.Id != 0 {
			byId[chunk.Id] = chunk
		}
	}

	for _, chunk := range chunks {
		if !chunk.HasParent() {
			continue
		}
		parent, ok := byId[chunk.ParentChunkId]
		if !ok {
			return fmt.Errorf("%w: %w: chunk index %d", ErrInvalidChunk, ErrParentNotInDocument, chunk.ChunkIndex)
		}
		if parent.HasParent() {
			return fmt.Errorf("%w: %w: chunk index %d", ErrInvalidChunk, ErrParentHasParent, chunk.ChunkIndex)
		}
	}

	return nil
}

// ValidateIndexTask validates an IndexTask according to domain rules.
//
// Validation rules:
//   - DocumentId must be set
//   - Reason must not be empty
//   - MaxAttempts must be positive
//   - Status, when set, must be recognized
func ValidateIndexTask(task *IndexTask) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidIndexTask)
	}

	if task.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidIndexTask, ErrMissingDocumentId)
	}

	if task.Reason == "" {
		return fmt.Errorf("%w: %w", ErrInvalidIndexTask, ErrEmptyReason)
	}

	if task.MaxAttempts <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidIndexTask, ErrInvalidMaxAttempts)
	}

	if task.Status != 0 {
		if err := ValidateTaskStatus(task.Status); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidIndexTask, err)
		}
	}

	return nil
}
