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


package badger

import "github.com/poiesic/archivist/storage"

// NewMemoryStores creates in-memory chunk, document, and task repositories
// for testing. Returns chunkRepo, docRepo, taskRepo, backend, and error.
// Caller must close all repos and the backend when done.
func NewMemoryStores(taskOpts ...TaskOption) (storage.ChunkRepository, storage.DocumentRepository, storage.TaskRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	chunkRepo, err := NewChunkRepository(backend, nil)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	docRepo, err := NewDocumentRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	taskRepo, err := NewTaskRepository(backend, taskOpts...)
	if err != nil {
		docRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	return chunkRepo, docRepo, taskRepo, backend, nil
}
