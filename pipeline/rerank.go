package pipeline

import (
	"context"
	"slices"

	"github.com/poiesic/docquery/core"
)

// rerank rescores the leading fused candidates with the fine-grained
// relevance scorer and truncates to min(topK, available). The scorer is an
// optional capability resolved once at Engine construction: when it is
// absent, or any scoring call fails, the fused order is kept unchanged and
// the second return value reports the degradation.
func (e *Engine) rerank(ctx context.Context, queryText string, candidates []core.FusedCandidate, chunks map[core.ID]*core.Chunk, topK int) ([]core.FusedCandidate, bool) {
	// Scoring depth: twice the requested size gives lower-fused candidates
	// a chance to surface without rescoring the whole fan-out.
	depth := topK * 2
	if depth > len(candidates) {
		depth = len(candidates)
	}

	truncate := func(list []core.FusedCandidate) []core.FusedCandidate {
		if len(list) > topK {
			return list[:topK]
		}
		return list
	}

	if e.scorer == nil {
		return truncate(candidates), true
	}

	type scored struct {
		candidate core.FusedCandidate
		score     float64
	}
	rescored := make([]scored, 0, depth)
	for _, c := range candidates[:depth] {
		chunk, ok := chunks[c.ChunkID]
		if !ok {
			continue
		}
		s, err := e.scorer.Score(ctx, queryText, chunk.Text)
		if err != nil {
			e.logger.Warn("relevance scoring failed, keeping fused order", "err", err)
			return truncate(candidates), true
		}
		rescored = append(rescored, scored{candidate: c, score: s})
	}

	// Stable sort keeps fused order between equal scores.
	slices.SortStableFunc(rescored, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	out := make([]core.FusedCandidate, 0, len(rescored))
	for _, s := range rescored {
		out = append(out, s.candidate)
	}
	return truncate(out), false
}
