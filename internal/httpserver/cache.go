package httpserver

import (
	"net/http"
	"sync"
	"time"
)

// responseCache memoizes successful GET responses for a short TTL. The
// analytics queries scan whole tables, and the dashboard polls them; serving
// a slightly stale copy keeps SQLite off the hot path. Ingests purge it.
type responseCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body        []byte
	contentType string
	expires     time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// wrap serves from the cache when fresh, otherwise invokes next and stores
// its response. Only 200 responses are cached.
func (c *responseCache) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.RequestURI()

		if entry, ok := c.get(key); ok {
			w.Header().Set("Content-Type", entry.contentType)
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			w.Write(entry.body)
			return
		}

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		if rec.status == http.StatusOK {
			c.put(key, cacheEntry{
				body:        rec.body,
				contentType: rec.Header().Get("Content-Type"),
				expires:     c.now().Add(c.ttl),
			})
		}
	}
}

func (c *responseCache) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expires) {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *responseCache) put(key string, entry cacheEntry) {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *responseCache) purge() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// recordingWriter tees the response body while passing it through.
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   []byte
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.status == http.StatusOK {
		w.body = append(w.body, p...)
	}
	return w.ResponseWriter.Write(p)
}
