// Package flight provides a memoizing cache with single-flight semantics: for
// any key at most one computation is in flight, and every caller asking for
// that key while it runs waits on the same Handle and receives the same value
// or the same *ComputationError.
//
// Entries are bounded by count and evicted in least-recently-used order. Values
// are held strongly; an entry only leaves the cache through LRU eviction, an
// explicit Remove/Clear, or the configured FailureStrategy. The strategy is
// applied when a computation fails, whether or not anyone is still waiting. Evicting an entry
// whose computation is still running detaches it from future lookups but does
// not interrupt it.
//
// Work runs on a caller-chosen Executor. Inline runs the computation on the
// goroutine that created the entry; a computation that calls Get for its own
// key under Inline will wait on itself forever.
package flight
