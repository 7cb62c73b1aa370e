package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	obsctx "github.com/fairyhunter13/ielts-writing-coach/internal/observability"
)

func Test_SecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) })).ServeHTTP(rec, r)
	res := rec.Result()
	if res.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing header")
	}
	if res.Header.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing header")
	}
	if res.Header.Get("Content-Security-Policy") == "" {
		t.Fatalf("missing csp")
	}
}

func Test_RequestID_SetsHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	RequestID()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) })).ServeHTTP(rec, r)
	if rec.Result().Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func Test_Recoverer_HandlesPanic(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	Recoverer()(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) { panic("boom") })).ServeHTTP(rec, r)
	if rec.Result().StatusCode != http.StatusInternalServerError {
		t.Fatalf("want 500")
	}
	var e respErr
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil || e.Error.Code != "INTERNAL" {
		t.Fatalf("want INTERNAL envelope, got %q (%v)", rec.Body.String(), err)
	}
}

func Test_RequestID_KeepsIncomingHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("X-Request-Id", "abc123")
	var seen string
	RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = obsctx.RequestIDFromContext(r.Context())
	})).ServeHTTP(rec, r)
	if seen != "abc123" || rec.Result().Header.Get("X-Request-Id") != "abc123" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rec.Result().Header.Get("X-Request-Id"))
	}
}

func Test_TraceMiddleware_UsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(TraceMiddleware)
	router.Get("/v1/reports/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/42", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("want 418, got %d", rec.Code)
	}
}

func Test_TimeoutMiddleware_GatewayTimeout(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	TimeoutMiddleware(5*time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(20 * time.Millisecond)
	})).ServeHTTP(rec, r)
	if rec.Result().StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Result().StatusCode)
	}
}

func Test_TraceMiddleware_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) })).ServeHTTP(rec, r)
	if rec.Result().StatusCode != 204 {
		t.Fatalf("want 204")
	}
}

func Test_newReqID_ReturnsNonEmpty(t *testing.T) {
	id := newReqID()
	if id == "" {
		t.Fatalf("expected non-empty request ID")
	}
}

func Test_newReqID_UniqueIDs(t *testing.T) {
	id1 := newReqID()
	id2 := newReqID()
	if id1 == id2 {
		t.Fatalf("expected unique request IDs, got %s and %s", id1, id2)
	}
}

func Test_AccessLog_SetsLogger(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	AccessLog()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })).ServeHTTP(rec, r)
	if rec.Result().StatusCode != 200 {
		t.Fatalf("want 200, got %d", rec.Result().StatusCode)
	}
}

func Test_LoggerFrom_ReturnsDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	lg := LoggerFrom(r)
	if lg == nil {
		t.Fatalf("expected non-nil logger")
	}
}

func Test_newReqID_IsULID(t *testing.T) {
	if id := newReqID(); len(id) != 26 {
		t.Fatalf("expected 26-char ULID, got %q", id)
	}
}

func Test_accessLevel(t *testing.T) {
	cases := map[int]slog.Level{
		200: slog.LevelInfo,
		304: slog.LevelInfo,
		413: slog.LevelWarn,
		503: slog.LevelError,
	}
	for status, want := range cases {
		if got := accessLevel(status); got != want {
			t.Fatalf("status %d: want %v got %v", status, want, got)
		}
	}
}

func Test_newReqID_ConcurrentUnique(t *testing.T) {
	const n = 200
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{}, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := newReqID()
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(ids) != n {
		t.Fatalf("expected %d unique ids, got %d", n, len(ids))
	}
}
