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

package pipeline

import (
	"strings"

	"github.com/poiesic/docquery/core"
)

// nearDuplicateOverlap is the token-overlap ratio above which two chunks
// are collapsed into one context entry.
const nearDuplicateOverlap = 0.9

// repack assembles candidates into a ContextBlock in relevance order.
// It dedupes by chunk id, collapses near-duplicates against already-packed
// chunks (keeping the higher-ranked one), and accumulates sizes under the
// budget, stopping before the budget would be exceeded. The top candidate
// is always included; if it alone is over budget its text is cut down so
// the block never exceeds the budget yet is never empty when candidates
// exist.
func (e *Engine) repack(candidates []core.FusedCandidate, chunks map[core.ID]*core.Chunk) *core.ContextBlock {
	block := &core.ContextBlock{}
	seen := make(map[core.ID]bool)

	for _, c := range candidates {
		chunk, ok := chunks[c.ChunkID]
		if !ok || seen[chunk.Id] {
			continue
		}
		seen[chunk.Id] = true

		if e.isNearDuplicate(chunk, block.Chunks) {
			continue
		}

		cost := e.counter.Count(chunk.Text)
		if len(block.Chunks) == 0 && cost > e.contextBudget {
			chunk = e.truncateChunk(chunk)
			cost = e.counter.Count(chunk.Text)
		}
		if block.Size+cost > e.contextBudget && len(block.Chunks) > 0 {
			break
		}

		block.Chunks = append(block.Chunks, chunk)
		block.Size += cost
	}

	return block
}

// isNearDuplicate reports whether the chunk is redundant against any packed
// chunk: same source file with an adjacent chunk index, or token overlap at
// or above nearDuplicateOverlap.
func (e *Engine) isNearDuplicate(chunk *core.Chunk, packed []*core.Chunk) bool {
	for _, p := range packed {
		if p.SourcePath == chunk.SourcePath {
			diff := p.ChunkIndex - chunk.ChunkIndex
			if diff == 1 || diff == -1 {
				return true
			}
		}
		if tokenOverlap(chunk.Text, p.Text) >= nearDuplicateOverlap {
			return true
		}
	}
	return false
}

// tokenOverlap returns the fraction of the smaller chunk's distinct words
// that also appear in the other chunk.
func tokenOverlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	if len(wordsB) < len(wordsA) {
		wordsA, wordsB = wordsB, wordsA
	}

	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(wordsA))
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}

// truncateChunk cuts an oversized chunk's text down until it fits the
// budget. Works on a copy so stored chunks stay untouched.
func (e *Engine) truncateChunk(chunk *core.Chunk) *core.Chunk {
	cut := *chunk
	runes := []rune(cut.Text)
	for len(runes) > 0 && e.counter.Count(string(runes)) > e.contextBudget {
		runes = runes[:len(runes)*9/10]
	}
	cut.Text = string(runes)
	return &cut
}
