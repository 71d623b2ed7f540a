package pipeline

import (
	"fmt"
	"strings"

	"github.com/poiesic/docquery/core"
)

const answerPromptTemplate = `Answer the question using only the provided context.
If the context does not contain enough information to answer, say so plainly.

Context:
%s

Question: %s

Answer:`

// buildAnswerPrompt renders the packed context and question into the
// generation prompt. Chunks are separated so the backend can tell
// passages apart.
func buildAnswerPrompt(question string, block *core.ContextBlock) string {
	texts := make([]string, len(block.Chunks))
	for i, chunk := range block.Chunks {
		texts[i] = chunk.Text
	}
	return fmt.Sprintf(answerPromptTemplate, strings.Join(texts, "\n---\n"), question)
}
