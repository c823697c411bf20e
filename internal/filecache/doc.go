// Package filecache memoizes whole-file reads behind a single-flight cache.
//
// Concurrent readers of the same path share one read. Missing and truncated
// files are dropped from the cache after failing so a later request can see a
// file that has since been created; other read failures are kept until the
// entry is evicted or cleared.
package filecache
