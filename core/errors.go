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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidIndexTask indicates an IndexTask failed validation.
	ErrInvalidIndexTask = errors.New("invalid index task")

	// ErrInvalidChunkType indicates an unrecognized ChunkType value or name.
	ErrInvalidChunkType = errors.New("invalid chunk type")

	// ErrInvalidTaskStatus indicates an unrecognized TaskStatus value.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidSearchWeight indicates a non-positive chunk search weight.
	ErrInvalidSearchWeight = errors.New("search weight must be positive")

	// ErrParentNotInDocument indicates a chunk references a parent outside
	// its own document.
	ErrParentNotInDocument = errors.New("parent chunk must belong to the same document")

	// ErrParentHasParent indicates a chunk references a parent that itself
	// has a parent. The parent relation is a strict two-level tree.
	ErrParentHasParent = errors.New("parent chunk cannot have a parent")

	// ErrDuplicateChunkIndex indicates two chunks in a document share a
	// chunk index.
	ErrDuplicateChunkIndex = errors.New("duplicate chunk index within document")

	// ErrMissingDocumentId indicates the DocumentId field is zero.
	ErrMissingDocumentId = errors.New("document id is required")

	// ErrInvalidMaxAttempts indicates a non-positive retry budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrEmptyReason indicates a task was enqueued without a reason.
	ErrEmptyReason = errors.New("reason cannot be empty")
)
