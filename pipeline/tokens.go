package pipeline

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text against the context budget. Implementations
// must be safe for concurrent use and deterministic for a fixed input.
type TokenCounter interface {
	Count(text string) int
}

// runeCounter counts runes. It is the default counter so the pipeline
// works without any tokenizer data; budgets are then rune budgets.
type runeCounter struct{}

func (runeCounter) Count(text string) int {
	return utf8.RuneCountInString(text)
}

// TiktokenCounter counts BPE tokens using a tiktoken encoding, matching
// how generation backends meter their context windows. The encoding is
// loaded lazily on first use; if loading fails the counter falls back to
// rune counting so a missing data file never breaks a query.
type TiktokenCounter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the named encoding.
// An empty name selects "cl100k_base".
func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenCounter{encoding: encoding}
}

// Count returns the token count of text under the configured encoding.
func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return utf8.RuneCountInString(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
