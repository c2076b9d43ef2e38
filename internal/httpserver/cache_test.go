package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseCacheServesStoredCopy(t *testing.T) {
	cache := newResponseCache(time.Minute)

	calls := 0
	handler := cache.wrap(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"n":1}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/overview", nil)

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))

	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, 1, calls, "second request served from cache")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `{"n":1}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestResponseCacheKeyIncludesQuery(t *testing.T) {
	cache := newResponseCache(time.Minute)

	calls := 0
	handler := cache.wrap(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte("ok"))
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/jobs?page=1", nil))
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/jobs?page=2", nil))
	assert.Equal(t, 2, calls)
}

func TestResponseCacheExpiry(t *testing.T) {
	cache := newResponseCache(30 * time.Second)
	now := time.Now()
	cache.now = func() time.Time { return now }

	calls := 0
	handler := cache.wrap(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	handler(httptest.NewRecorder(), req)
	handler(httptest.NewRecorder(), req)
	assert.Equal(t, 1, calls)

	now = now.Add(31 * time.Second)
	handler(httptest.NewRecorder(), req)
	assert.Equal(t, 2, calls, "entry expired")
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	cache := newResponseCache(time.Minute)

	calls := 0
	handler := cache.wrap(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	handler(httptest.NewRecorder(), req)
	handler(httptest.NewRecorder(), req)
	assert.Equal(t, 2, calls, "error responses are never cached")
}

func TestResponseCachePurge(t *testing.T) {
	cache := newResponseCache(time.Minute)

	calls := 0
	handler := cache.wrap(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	handler(httptest.NewRecorder(), req)
	cache.purge()
	handler(httptest.NewRecorder(), req)
	assert.Equal(t, 2, calls)
}
