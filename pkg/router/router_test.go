package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func text(body string) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}
}

func do(r *Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouterExactAndWildcard(t *testing.T) {
	r := New()
	r.GET("/api/v1/reports", text("list"))
	r.POST("/api/v1/reports", text("create"))
	r.GET("/api/v1/reports/*/errors", text("errors"))
	r.GET("/api/v1/reports/*", text("get"))
	r.DELETE("/api/v1/reports/*", text("delete"))

	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/v1/reports", "list"},
		{http.MethodPost, "/api/v1/reports", "create"},
		{http.MethodGet, "/api/v1/reports/abc/errors", "errors"},
		{http.MethodGet, "/api/v1/reports/abc", "get"},
		{http.MethodDelete, "/api/v1/reports/abc", "delete"},
	}
	for _, tt := range tests {
		rec := do(r, tt.method, tt.path)
		if rec.Code != http.StatusOK || rec.Body.String() != tt.want {
			t.Errorf("%s %s = %d %q, want %q", tt.method, tt.path, rec.Code, rec.Body.String(), tt.want)
		}
	}
}

func TestRouterFirstRegisteredWildcardWins(t *testing.T) {
	// run many times: matching must not depend on map iteration order
	for i := 0; i < 20; i++ {
		r := New()
		r.GET("/files/*/special", text("special"))
		r.GET("/files/*", text("generic"))

		if got := do(r, http.MethodGet, "/files/x/special").Body.String(); got != "special" {
			t.Fatalf("got %q", got)
		}
	}
}

func TestRouterNotFoundAndMethodNotAllowed(t *testing.T) {
	r := New()
	r.GET("/health", text("ok"))

	if rec := do(r, http.MethodGet, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path: %d", rec.Code)
	}
	if rec := do(r, http.MethodPost, "/health"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: %d", rec.Code)
	}
}

func TestMatchWildcardRoute(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"/a/b/c", "/a/*", true},
		{"/a", "/a/*", true},
		{"/b/c", "/a/*", false},
		{"/a/x/c", "/a/*/c", true},
		{"/a/x/d", "/a/*/c", false},
		{"/a/x/y/c", "/a/*/c", false},
	}
	for _, tt := range tests {
		if got := matchWildcardRoute(tt.path, tt.pattern); got != tt.want {
			t.Errorf("matchWildcardRoute(%q, %q) = %v", tt.path, tt.pattern, got)
		}
	}
}

func TestHandle(t *testing.T) {
	r := New()
	r.Handle(http.MethodGet, "/static/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, req.URL.Path)
	}))

	if got := do(r, http.MethodGet, "/static/app.js").Body.String(); got != "/static/app.js" {
		t.Errorf("got %q", got)
	}
	if !r.Paths()["/static/*"] {
		t.Errorf("path not registered: %v", r.Paths())
	}
	if _, ok := r.Routes()["GET:/static/*"]; !ok {
		t.Error("route not registered")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	r := New()
	r.GET("/ping", text("pong"))

	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
