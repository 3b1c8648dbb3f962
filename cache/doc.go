// Package cache memoizes the expensive steps of matching: embedding text,
// scoring a (document, job description) pair and extracting structured
// profiles.
//
// The caches sit on a storage.BlobStore and coordinate concurrent misses
// per key with singleflight, so at most one computation is in flight for
// any key and unrelated keys never contend. Failures are never stored; the
// next request for the key computes again.
//
// A computation runs detached from the cancellation of the caller that
// started it. A caller that gives up returns ctx.Err() immediately while
// the computation completes and populates the cache for later requests.
package cache
