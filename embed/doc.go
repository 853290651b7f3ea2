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


// Package embed defines the embedding service abstraction used to turn
// query text into vectors. The OpenAI-compatible implementation lives in
// embed/openai; a deterministic test double lives in embed/mock.
//
// Chunk embeddings themselves are produced by the external indexer; this
// package only covers query-side embedding and test seeding.
package embed
