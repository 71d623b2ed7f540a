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
	"context"
	"sync"

	"github.com/poiesic/docquery/core"
)

// retrieve embeds each sub-query and searches the store with fan-out
// k' = topK * fanoutMultiplier, running sub-queries concurrently on the
// worker pool. The returned lists are indexed by sub-query id; each list
// preserves the store's distance order as 1-based rank. An embedding or
// search failure degrades that sub-query to an empty list and is logged,
// never aborting the query. Chunk records seen along the way are collected
// so later stages can resolve ids without another store round-trip.
func (e *Engine) retrieve(ctx context.Context, subs []core.SubQuery, topK int) ([][]core.RetrievalHit, map[core.ID]*core.Chunk) {
	fanout := topK * e.fanoutMultiplier

	lists := make([][]core.RetrievalHit, len(subs))
	chunks := make(map[core.ID]*core.Chunk)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, sub := range subs {
		i, sub := i, sub
		wg.Add(1)
		task := func() {
			defer wg.Done()

			embedding, err := e.embedder.EmbedText(ctx, sub.Text)
			if err != nil {
				e.logger.Warn("sub-query embedding failed, skipping",
					"subQuery", sub.Id, "err", err)
				return
			}

			hits, err := e.store.Search(ctx, embedding, fanout)
			if err != nil {
				e.logger.Warn("sub-query search failed, skipping",
					"subQuery", sub.Id, "err", err)
				return
			}

			list := make([]core.RetrievalHit, len(hits))
			mu.Lock()
			for rank, hit := range hits {
				list[rank] = core.RetrievalHit{
					ChunkID:  hit.Chunk.Id,
					Rank:     rank + 1,
					Distance: hit.Distance,
				}
				chunks[hit.Chunk.Id] = hit.Chunk
			}
			lists[i] = list
			mu.Unlock()
		}

		if err := e.pool.Submit(task); err != nil {
			// Pool exhausted or released; run on the caller instead.
			task()
		}
	}
	wg.Wait()

	return lists, chunks
}
