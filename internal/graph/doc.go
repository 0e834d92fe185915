// Package graph is the dependency core: it builds a validated dependency
// graph from declared spec dependencies, computes deterministic build orders
// (linear and leveled), locates cycles for diagnostics, and answers
// "what is affected if this spec changes" queries.
//
// Everything in this package is a pure, synchronous computation over
// in-memory structures. Persistence lives in internal/manifest and
// concurrency lives in internal/executor.
package graph
