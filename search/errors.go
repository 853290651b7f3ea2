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


package search

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrInvalidMatchCount is returned for a non-positive match count.
	ErrInvalidMatchCount = errors.New("match count must be positive")

	// ErrInvalidFilterChunkType is returned when a chunk type filter names
	// an unrecognized type. Filters are rejected, never silently clamped.
	ErrInvalidFilterChunkType = errors.New("invalid chunk type in filter")

	// ErrEmptyQueryVector is returned when the query embedding is missing.
	ErrEmptyQueryVector = errors.New("query vector required")
)
