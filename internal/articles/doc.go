// Package articles holds the process-wide article cache and the two
// consumers built on it: the list controller, which decides when the cache
// refreshes, and the resolver, which looks up single articles cache-first
// with a network fallback.
//
// The cache does not serialize refreshes. Two overlapping FetchAll calls
// race and the one that completes last determines the final state.
package articles
