// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the embedding model, the hosted vector
// index, the completion LLM, and document extractors. The services in
// internal/core treat all of these as black boxes with defined
// input/output contracts.
package driven
