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
	"slices"

	"github.com/poiesic/docquery/core"
)

// fuseRanks merges per-sub-query result lists into one candidate list with
// reciprocal rank fusion: each chunk scores the sum of 1/(rank+k0) over
// every list it appears in. Rank-based scoring needs no cross-list
// normalization, so distance scales may differ between sub-queries.
//
// Output is descending by fused score; ties break by best individual rank,
// then by chunk id. The result is deterministic and does not depend on the
// order of the input lists.
func fuseRanks(lists [][]core.RetrievalHit, k0 int) []core.FusedCandidate {
	byChunk := make(map[core.ID]*core.FusedCandidate)
	for listIdx, list := range lists {
		for _, hit := range list {
			c, ok := byChunk[hit.ChunkID]
			if !ok {
				c = &core.FusedCandidate{ChunkID: hit.ChunkID}
				byChunk[hit.ChunkID] = c
			}
			c.Score += 1.0 / float64(hit.Rank+k0)
			c.Ranks = append(c.Ranks, core.ListRank{SubQuery: listIdx, Rank: hit.Rank})
		}
	}

	candidates := make([]core.FusedCandidate, 0, len(byChunk))
	for _, c := range byChunk {
		candidates = append(candidates, *c)
	}

	slices.SortFunc(candidates, func(a, b core.FusedCandidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		if ar, br := a.BestRank(), b.BestRank(); ar != br {
			return ar - br
		}
		switch {
		case a.ChunkID < b.ChunkID:
			return -1
		case a.ChunkID > b.ChunkID:
			return 1
		}
		return 0
	})
	return candidates
}
