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


// Package storage provides the storage abstraction layer for archivist.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. Any persistence layer offering
// transactional conflict detection can back them; the BadgerDB
// implementation lives in storage/badger.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage interfaces to enforce abstraction
// and keep backends swappable:
//
//	tasks, err := badger.NewTaskRepository(backend)  // returns storage.TaskRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - ChunkRepository: the chunked, embedded representation of documents
//   - DocumentRepository: document attributes used for search filtering
//   - TaskRepository: the durable index task queue with atomic claiming
//
// # Thread Safety
//
// All repository implementations must be thread-safe. TaskRepository in
// particular carries the system's only mutual exclusion: its claim
// operation is atomic against concurrent callers, so no task is ever
// handed to two workers.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
