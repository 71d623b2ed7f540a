package core

import (
	"errors"
	"testing"
)

func validChunk() *Chunk {
	return &Chunk{
		Id:         ChunkID("docs/a.md", 0, "hello world"),
		Text:       "hello world",
		SourcePath: "docs/a.md",
		ChunkIndex: 0,
		Embedding:  []float32{0.1, 0.2, 0.3},
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Chunk)
		wantErr error
	}{
		{
			name:    "valid chunk",
			mutate:  func(c *Chunk) {},
			wantErr: nil,
		},
		{
			name:    "empty text",
			mutate:  func(c *Chunk) { c.Text = "" },
			wantErr: ErrEmptyText,
		},
		{
			name:    "empty source path",
			mutate:  func(c *Chunk) { c.SourcePath = "" },
			wantErr: ErrEmptySourcePath,
		},
		{
			name:    "negative chunk index",
			mutate:  func(c *Chunk) { c.ChunkIndex = -1 },
			wantErr: ErrNegativeChunkIndex,
		},
		{
			name:    "missing embedding",
			mutate:  func(c *Chunk) { c.Embedding = nil },
			wantErr: ErrEmptyEmbedding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := validChunk()
			tt.mutate(chunk)
			err := ValidateChunk(chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidChunk) || !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() = %v, want wrapped %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk_Nil(t *testing.T) {
	if err := ValidateChunk(nil); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("ValidateChunk(nil) = %v, want %v", err, ErrInvalidChunk)
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   *Query
		wantErr error
	}{
		{name: "valid", query: &Query{Text: "what is a chunk", TopK: 5}},
		{name: "empty text", query: &Query{Text: "", TopK: 5}, wantErr: ErrEmptyText},
		{name: "whitespace only", query: &Query{Text: "   \t\n", TopK: 5}, wantErr: ErrEmptyText},
		{name: "zero top-k", query: &Query{Text: "q", TopK: 0}, wantErr: ErrInvalidTopK},
		{name: "negative top-k", query: &Query{Text: "q", TopK: -3}, wantErr: ErrInvalidTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateQuery() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidQuery) || !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateQuery() = %v, want wrapped %v", err, tt.wantErr)
			}
		})
	}
}
