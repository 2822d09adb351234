package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	released      []string
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	f.released = append(f.released, key)
	return nil
}

// mapStore is a minimal working store for replay tests.
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *mapStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return true, v, nil
	}
	if response == nil {
		response = []byte(inFlightMarker)
	}
	s.data[key] = response
	return false, nil, nil
}

func (s *mapStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = response
	return nil
}

func (s *mapStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func newPost(path, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func TestIdempotencyMiddleware_StoreErrorIs500(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newPost("/api/v1/envelopes", "key-err"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	var updated bool
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})).ServeHTTP(rr, newPost("/api/v1/envelopes", "key-fail"))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if len(store.released) != 1 || store.released[0] != "/api/v1/envelopes|key-fail" {
		t.Fatalf("expected key to be released, got %v", store.released)
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatalf("store should not be consulted for GET")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/envelopes/e1", nil)
	req.Header.Set(IdempotencyKeyHeader, "key")
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_ReplaysStatusAndBody(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"env-1"}`))
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, newPost("/api/v1/envelopes", "k1"))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, newPost("/api/v1/envelopes", "k1"))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay header")
	}
	if got := second.Body.String(); got != `{"id":"env-1"}` {
		t.Fatalf("unexpected replayed body: %s", got)
	}

	var stored cachedResponse
	if err := json.Unmarshal(store.data["/api/v1/envelopes|k1"], &stored); err != nil {
		t.Fatal(err)
	}
	if stored.Status != http.StatusCreated {
		t.Fatalf("expected stored status 201, got %d", stored.Status)
	}
}

func TestIdempotencyMiddleware_KeysAreScopedByPath(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), newPost("/api/v1/envelopes/a/claims", "same"))
	h.ServeHTTP(httptest.NewRecorder(), newPost("/api/v1/envelopes/b/claims", "same"))

	if calls != 2 {
		t.Fatalf("expected both routes to run, got %d calls", calls)
	}
}

func TestIdempotencyMiddleware_InFlightIsConflict(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(inFlightMarker), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run while the first request is in flight")
	})).ServeHTTP(rr, newPost("/api/v1/envelopes", "k"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_RetryAfterFailureRuns(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	status := http.StatusServiceUnavailable
	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	h.ServeHTTP(httptest.NewRecorder(), newPost("/api/v1/envelopes", "k"))
	status = http.StatusCreated
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newPost("/api/v1/envelopes", "k"))

	if calls != 2 || rr.Code != http.StatusCreated {
		t.Fatalf("expected retry to run, calls=%d code=%d", calls, rr.Code)
	}
}

func TestIdempotencyMiddleware_PanicReleasesKey(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	calls := 0
	h := Recovery(zerolog.Nop())(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("nil map write")
		}
		w.WriteHeader(http.StatusCreated)
	})))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, newPost("/api/v1/envelopes", "k-panic"))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from recovery, got %d", first.Code)
	}
	if _, held := store.data["/api/v1/envelopes|k-panic"]; held {
		t.Fatalf("expected key to be released after panic")
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, newPost("/api/v1/envelopes", "k-panic"))
	if calls != 2 || second.Code != http.StatusCreated {
		t.Fatalf("expected retry to run, calls=%d code=%d", calls, second.Code)
	}
}
