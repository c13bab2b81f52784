// Package cache provides the in-memory response cache.
//
// Entries are keyed by Key, a SHA-256 digest of the request fields that
// determine a response. The cache keeps entries in least-recently-used order
// and evicts from the back once MaxSize is exceeded. Every entry carries its
// own TTL; an entry older than its TTL is removed on the next Get and is
// also swept by EvictExpired.
//
// Streaming requests bypass the cache entirely: Get always misses and Put
// never stores.
//
// Example:
//
//	c := cache.New(cache.Config{MaxSize: 500, DefaultTTL: 10 * time.Minute})
//	if resp, ok := c.Get(req); ok {
//	    return resp, nil
//	}
//	resp, err := backend.GenerateCompletion(ctx, req)
//	if err == nil {
//	    c.Put(req, resp, cache.UseDefaultTTL)
//	}
package cache
