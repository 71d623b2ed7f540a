package core

import (
	"encoding/binary"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Chunk IDs are derived from content hashing so that re-ingesting the same
// text under the same source yields the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is a unit of indexed text with its embedding and provenance.
// Chunks are created by ingestion and are immutable once stored; the query
// pipeline only ever reads them.
type Chunk struct {
	Id         ID
	Text       string
	SourcePath string
	ChunkIndex int
	Embedding  []float32
	Metadata   map[string]string
}

// ChunkID derives a chunk's content ID from its provenance and text.
// Two chunks with the same source, index, and text collide on purpose.
func ChunkID(sourcePath string, chunkIndex int, text string) ID {
	return IDFromContent(sourcePath + "\x00" + strconv.Itoa(chunkIndex) + "\x00" + text)
}

// Query is a caller request against the pipeline.
type Query struct {
	Text    string
	TopK    int
	Verbose bool
}

// SubQuery is a derived query text tagged with the rewriter strategy that
// produced it. Index 0 in any expansion is always the normalized original.
type SubQuery struct {
	Id       int
	Text     string
	Strategy string
}

// RetrievalHit is one nearest-neighbor result within a single sub-query's
// ranked list. Rank is 1-based and preserves the store's distance order.
type RetrievalHit struct {
	ChunkID  ID
	Rank     int
	Distance float64
}

// ListRank records where a chunk appeared in one sub-query's result list.
type ListRank struct {
	SubQuery int
	Rank     int
}

// FusedCandidate is a chunk after reciprocal rank fusion across all
// sub-query result lists.
type FusedCandidate struct {
	ChunkID ID
	Score   float64
	Ranks   []ListRank
}

// BestRank returns the lowest individual rank across contributing lists.
// Used as the first fusion tie-break.
func (c *FusedCandidate) BestRank() int {
	best := 0
	for _, r := range c.Ranks {
		if best == 0 || r.Rank < best {
			best = r.Rank
		}
	}
	return best
}

// ContextBlock is the deduplicated, budget-bounded context handed to the
// generation backend. Texts are in relevance order and Size never exceeds
// the budget it was packed under.
type ContextBlock struct {
	Chunks []*Chunk
	Size   int
}

// SearchHit is one nearest-neighbor match returned by the vector store,
// ordered by ascending distance.
type SearchHit struct {
	Chunk    *Chunk
	Distance float64
}

// Source identifies the provenance of one cited chunk.
type Source struct {
	SourcePath string
	ChunkID    ID
}

// QueryResponse is the final pipeline result. Degraded marks responses built
// without an optional stage (reranker unavailable, scorer failure); Trace is
// populated only for verbose queries.
type QueryResponse struct {
	Answer     string
	Confidence float64
	Sources    []Source
	Degraded   bool
	Trace      []TraceEntry
}

// TraceEntry is one stage snapshot appended during a verbose query.
type TraceEntry struct {
	Stage   string
	Summary string
}
