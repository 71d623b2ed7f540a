package openai

import "fmt"

const scoringPromptTemplate = `Rate how relevant the passage is to the question on a scale from 0 to 10.
0 means completely unrelated, 10 means it directly answers the question.
Reply with a single number and nothing else.

Question: %s

Passage:
%s

Score:`

func buildScoringPrompt(query, passage string) string {
	return fmt.Sprintf(scoringPromptTemplate, query, passage)
}
