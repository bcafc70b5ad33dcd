package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/companion/internal/config"
	"github.com/lazypower/companion/internal/engine"
	"github.com/lazypower/companion/internal/llm"
	"github.com/lazypower/companion/internal/store"
)

type testEnv struct {
	srv  *Server
	db   *store.DB
	mock *llm.MockClient
	eng  *engine.Engine
}

// newTestEnv wires a server over an in-memory store and a mock model. A nil
// handler answers "none" to every prompt.
func newTestEnv(t *testing.T, handler func(prompt string) (string, error)) *testEnv {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if handler == nil {
		handler = func(string) (string, error) { return "none", nil }
	}
	mock := &llm.MockClient{Handler: handler}
	eng := engine.New(db, mock, engine.Options{
		Worker: config.WorkerConfig{Count: 1, Queue: 8, Timeout: time.Minute},
	})
	t.Cleanup(eng.Close)

	return &testEnv{
		srv:  New(db, eng, "test-version", nil, nil),
		db:   db,
		mock: mock,
		eng:  eng,
	}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		headers string
	}{
		{"with request headers", "content-type"},
		{"without request headers", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("OPTIONS", "/api/chat/ask", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", "POST")
			if tt.headers != "" {
				req.Header.Set("Access-Control-Request-Headers", tt.headers)
			}
			w := httptest.NewRecorder()
			env.srv.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
				t.Errorf("Access-Control-Allow-Methods = %q, want POST", got)
			}
			if tt.headers != "" {
				if got := w.Header().Get("Access-Control-Allow-Headers"); got != tt.headers {
					t.Errorf("Access-Control-Allow-Headers = %q, want %q", got, tt.headers)
				}
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	if w := env.do("GET", "/api/sessions", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
