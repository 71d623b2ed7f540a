// Package pipeline runs the multi-stage query pipeline: query expansion,
// parallel per-sub-query retrieval, reciprocal rank fusion, optional
// reranking, context assembly, cached generation, and confidence scoring.
//
// The Engine is the orchestrator. A query moves through a fixed stage
// order with no cycles; optional stages degrade instead of failing, and
// only a generation-backend failure (after one retry) aborts a query.
//
// # Constructor Return Type Pattern
//
// NewEngine returns the concrete *Engine rather than an interface. Callers
// that want substitution define their own interface at the point of use.
package pipeline
