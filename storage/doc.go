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


// Package storage provides the storage abstraction layer for docquery.
//
// This package defines the ChunkStore interface that decouples the vector
// store implementation from the query pipeline. The BadgerDB implementation
// lives in the badger subpackage; the interface is shaped so that an
// approximate nearest-neighbor index can be substituted without changing
// any caller.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.ChunkStore interface rather than
// a concrete type:
//
//	store, err := badger.NewStore(backend)  // returns storage.ChunkStore
//
// This keeps consumers decoupled from BadgerDB specifics and lets tests
// swap in the in-memory store from badger.NewMemoryStore.
//
// # Thread Safety
//
// Stores must support concurrent readers. Add calls are single-writer:
// callers serialize them relative to each other, but reads may run
// concurrently with an Add and simply observe the pre-commit state.
//
// # Context Support
//
// All store methods accept context.Context. Pass context.Background() for
// operations without specific timeout requirements.
package storage
