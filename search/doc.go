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


// Package search provides hybrid retrieval over typed document chunks.
//
// The Engine type scores every matchable chunk against a query using a
// weighted blend of:
//   - Vector similarity (cosine, multiplied by the chunk's search weight)
//   - Lexical relevance (stop-word-filtered term overlap)
//
// Surviving chunks are deduplicated to exactly one hit per document, with
// title chunks outranking higher-scoring non-title chunks of the same
// document. A matched small chunk that references a parent chunk also
// carries the parent's content as expanded context for downstream
// answer generation.
package search
