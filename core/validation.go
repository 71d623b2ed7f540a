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

import (
	"fmt"
	"strings"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - SourcePath must not be empty
//   - ChunkIndex must be >= 0
//   - Embedding must not be empty (chunks are embedded before storage)
//
// NOT validated:
//   - ID (derived from content when zero)
//   - Metadata (optional, any string keys and values are permitted)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.SourcePath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySourcePath)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeChunkIndex)
	}

	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyEmbedding)
	}

	return nil
}

// ValidateQuery validates a Query according to domain rules.
//
// Validation rules:
//   - Text must contain at least one non-whitespace character
//   - TopK must be positive
func ValidateQuery(query *Query) error {
	if query == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}

	if strings.TrimSpace(query.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyText)
	}

	if query.TopK <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrInvalidTopK)
	}

	return nil
}
