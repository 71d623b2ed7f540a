package core

import (
	"reflect"
	"testing"
)

func TestChunkMUS_RoundTrip(t *testing.T) {
	chunk := Chunk{
		Id:         ChunkID("docs/guide.md", 2, "vector stores persist chunk records"),
		Text:       "vector stores persist chunk records",
		SourcePath: "docs/guide.md",
		ChunkIndex: 2,
		Embedding:  []float32{0.25, -1.5, 0.0, 3.75},
		Metadata:   map[string]string{"lang": "en", "section": "storage"},
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, buf)
	if n != len(buf) {
		t.Fatalf("Marshal wrote %d bytes, Size predicted %d", n, len(buf))
	}

	got, m, err := ChunkMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m != n {
		t.Fatalf("Unmarshal consumed %d bytes, expected %d", m, n)
	}
	if !reflect.DeepEqual(got, chunk) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, chunk)
	}
}

func TestChunkMUS_EmptyOptionalFields(t *testing.T) {
	chunk := Chunk{
		Id:         1,
		Text:       "t",
		SourcePath: "s",
		Embedding:  []float32{1},
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, buf)

	got, _, err := ChunkMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Metadata != nil {
		t.Errorf("expected nil metadata, got %v", got.Metadata)
	}
}

func TestChunkMUS_Truncated(t *testing.T) {
	chunk := Chunk{Id: 7, Text: "payload", SourcePath: "p", Embedding: []float32{1, 2}}
	buf := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, buf)

	if _, _, err := ChunkMUS.Unmarshal(buf[:3]); err == nil {
		t.Error("expected error unmarshaling truncated data")
	}
}
