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
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidQuery indicates a Query failed validation.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptySourcePath indicates the SourcePath field is empty.
	ErrEmptySourcePath = errors.New("source path cannot be empty")

	// ErrNegativeChunkIndex indicates a chunk index below zero.
	ErrNegativeChunkIndex = errors.New("chunk index cannot be negative")

	// ErrEmptyEmbedding indicates a chunk is missing its embedding vector.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")

	// ErrInvalidTopK indicates a non-positive top-k value.
	ErrInvalidTopK = errors.New("top-k must be positive")
)
