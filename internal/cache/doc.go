// Package cache implements the size-bounded caches used by tiny-service: an
// in-memory store and an on-disk store that share one eviction ledger. Every
// entry carries a Policy (hit count, last access, size); Put evicts the least
// used entry until the incoming value fits, and Get drops entries that have not
// been touched within the configured max age. The disk variant names files by a
// stable hash of the key and writes them through a temp file + rename, so a
// half-written value is never visible under its final name. Callers own the
// value sizer and, for disk caches, the Codec that turns values into bytes.
package cache
