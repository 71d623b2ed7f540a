package pipeline

import (
	"strings"

	"github.com/poiesic/docquery/core"
)

// Confidence is a fixed weighted combination of three signals, each in
// [0,1], scaled to [0,100]:
//
//   - retrieval (weight 50): mean fused score of the packed chunks,
//     normalized against the ideal score of a chunk ranked first in every
//     sub-query list. High values mean the context was ranked highly by
//     many sub-queries.
//   - concentration (weight 20): the top candidate's share of the packed
//     score mass. High values mean one chunk clearly dominated.
//   - groundedness (weight 30): the fraction of the answer's content words
//     that appear in the packed context. Low values suggest the backend
//     drifted from its sources.
//
// The result is deterministic for identical inputs and clamped to [0,100].
// Empty-result responses score exactly 0.
const (
	weightRetrieval     = 50.0
	weightConcentration = 20.0
	weightGroundedness  = 30.0
)

func scoreConfidence(packed []core.FusedCandidate, listCount, k0 int, answer string, block *core.ContextBlock) float64 {
	if len(packed) == 0 || block == nil || len(block.Chunks) == 0 {
		return 0
	}

	// A chunk ranked first in every list scores listCount/(1+k0).
	ideal := float64(listCount) / float64(1+k0)
	if ideal <= 0 {
		return 0
	}

	var total float64
	for _, c := range packed {
		total += c.Score
	}
	mean := total / float64(len(packed))

	retrieval := mean / ideal
	if retrieval > 1 {
		retrieval = 1
	}

	concentration := packed[0].Score / total

	confidence := weightRetrieval*retrieval +
		weightConcentration*concentration +
		weightGroundedness*groundedness(answer, block)

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

// groundedness is the fraction of distinct answer words found in the
// packed context. An empty answer grounds to 0.
func groundedness(answer string, block *core.ContextBlock) float64 {
	answerWords := wordSet(answer)
	if len(answerWords) == 0 {
		return 0
	}

	var contextText strings.Builder
	for _, chunk := range block.Chunks {
		contextText.WriteString(chunk.Text)
		contextText.WriteString(" ")
	}
	contextWords := wordSet(contextText.String())

	found := 0
	for w := range answerWords {
		if contextWords[w] {
			found++
		}
	}
	return float64(found) / float64(len(answerWords))
}
