package webhook

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"loyaltykit/core"
)

func TestSink_OnEventPostsToEndpoints(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.ReadAll(r.Body)
		_ = r.Body.Close()
	}))
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(core.NewXPAdded("u1", 5, 5))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
}

func TestSink_FiltersEventTypes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	sink := New([]string{srv.URL}, WithEventTypes(core.EventLevelUp))
	sink.OnEvent(core.NewXPAdded("u1", 5, 5))
	sink.OnEvent(core.NewLevelUp("u1", 2))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected only the level up to be delivered, got %d hits", hits)
	}
}

func TestSink_SetsConfiguredHeaders(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Shop-Secret")
	}))
	defer srv.Close()

	sink := New([]string{srv.URL}, WithHeader("X-Shop-Secret", "s3cret"))
	sink.OnEvent(core.NewOrderRecorded("u1", 1))

	if got != "s3cret" {
		t.Fatalf("expected header to be set, got %q", got)
	}
}
