// Package rewrite normalizes raw queries and expands them into a small
// set of sub-queries for broader retrieval recall.
//
// Expansion prefers the generation backend when one is configured and
// falls back to deterministic rule-based variants (synonym substitution
// and keyword reduction) when the backend is missing or fails. The
// normalized original query is always the first sub-query, so expansion
// can degrade but never fail.
package rewrite
