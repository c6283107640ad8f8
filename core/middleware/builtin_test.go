package middleware

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/searchktools/quickly/core/http"
	"github.com/searchktools/quickly/core/observability"
	"github.com/searchktools/quickly/core/router"
)

func okEndpoint(body string) Endpoint {
	return EndpointFunc(func(req *http.Request) *http.Response {
		return http.NewResponse().Send(body)
	})
}

// TestRecoveryMiddleware tests that a panicking handler becomes a 500
func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	chain := NewChain().Use(Recovery(zerolog.New(&buf)))

	res := chain.Dispatch(http.NewRequest("GET", "/boom"), EndpointFunc(func(req *http.Request) *http.Response {
		panic("test panic")
	}))

	if res.Status != 500 || res.Body != "Internal Server Error" {
		t.Errorf("Expected 500 Internal Server Error, got %d %q", res.Status, res.Body)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["panic"] != "test panic" || entry["path"] != "/boom" || entry["level"] != "error" {
		t.Errorf("Unexpected log entry %v", entry)
	}
}

// TestRecoveryPassThrough tests that Recovery does not touch normal responses
func TestRecoveryPassThrough(t *testing.T) {
	chain := NewChain().Use(Recovery(zerolog.Nop()))

	res := chain.Dispatch(http.NewRequest("GET", "/"), okEndpoint("fine"))
	if res.Status != 200 || res.Body != "fine" {
		t.Errorf("Unexpected response %d %q", res.Status, res.Body)
	}
}

// TestLoggerMiddleware tests the access log line
func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	chain := NewChain().Use(Logger(zerolog.New(&buf)))

	chain.Dispatch(http.NewRequest("POST", "/items"), EndpointFunc(func(req *http.Request) *http.Response {
		return http.NewResponseWith(201, "created")
	}))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["method"] != "POST" || entry["path"] != "/items" || entry["status"] != float64(201) {
		t.Errorf("Unexpected log entry %v", entry)
	}
	if _, ok := entry["duration"]; !ok {
		t.Error("Expected duration field")
	}
}

// TestCORSMiddleware tests CORS headers and the OPTIONS short-circuit
func TestCORSMiddleware(t *testing.T) {
	chain := NewChain().Use(CORS())

	res := chain.Dispatch(http.NewRequest("GET", "/"), okEndpoint("ok"))
	if res.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected Access-Control-Allow-Origin on GET")
	}
	if res.Body != "ok" {
		t.Errorf("Expected handler body, got %q", res.Body)
	}

	reached := false
	res = chain.Dispatch(http.NewRequest("OPTIONS", "/"), EndpointFunc(func(req *http.Request) *http.Response {
		reached = true
		return http.NewResponse()
	}))
	if reached {
		t.Error("OPTIONS should not reach the endpoint")
	}
	if res.Status != 204 {
		t.Errorf("Expected 204 for OPTIONS, got %d", res.Status)
	}
	if res.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Error("Expected Access-Control-Allow-Methods on OPTIONS")
	}
}

// TestRateLimiter tests that requests beyond the budget get a 429
func TestRateLimiter(t *testing.T) {
	chain := NewChain().Use(RateLimiter(2))
	end := okEndpoint("ok")

	for i := 0; i < 2; i++ {
		if res := chain.Dispatch(http.NewRequest("GET", "/"), end); res.Status != 200 {
			t.Errorf("Request %d should pass, got %d", i+1, res.Status)
		}
	}

	res := chain.Dispatch(http.NewRequest("GET", "/"), end)
	if res.Status != 429 {
		t.Errorf("Third request should be limited, got %d", res.Status)
	}
	if res.Header.Get("Content-Type") != http.ContentTypeJSON {
		t.Errorf("Expected JSON error body, got %q", res.Header.Get("Content-Type"))
	}
}

// TestRequestIDMiddleware tests id assignment and propagation
func TestRequestIDMiddleware(t *testing.T) {
	chain := NewChain().Use(RequestID())

	var seen string
	end := EndpointFunc(func(req *http.Request) *http.Response {
		seen = req.Header.Get(RequestIDHeader)
		return http.NewResponse()
	})

	first := chain.Dispatch(http.NewRequest("GET", "/"), end)
	if seen == "" || first.Header.Get(RequestIDHeader) != seen {
		t.Errorf("Expected matching request and response ids, got %q and %q", seen, first.Header.Get(RequestIDHeader))
	}

	second := chain.Dispatch(http.NewRequest("GET", "/"), end)
	if second.Header.Get(RequestIDHeader) == first.Header.Get(RequestIDHeader) {
		t.Error("Expected a new id per request")
	}

	req := http.NewRequest("GET", "/")
	req.Header.Set(RequestIDHeader, "upstream-7")
	if res := chain.Dispatch(req, end); res.Header.Get(RequestIDHeader) != "upstream-7" {
		t.Errorf("Expected incoming id to be kept, got %q", res.Header.Get(RequestIDHeader))
	}
}

// TestMetricsMiddleware tests recording keyed by route pattern
func TestMetricsMiddleware(t *testing.T) {
	r := router.New()
	r.Add("GET", "/users/:id", http.HandlerFunc(func(req *http.Request, res *http.Response) *http.Response {
		return res.Send(req.Param("id"))
	}))
	r.Add("GET", "/fail", http.HandlerFunc(func(req *http.Request, res *http.Response) *http.Response {
		return res.WithStatus(503)
	}))

	monitor := observability.NewMonitor()
	chain := NewChain().Use(Metrics(monitor))

	chain.Dispatch(http.NewRequest("GET", "/users/1"), r)
	chain.Dispatch(http.NewRequest("GET", "/users/2"), r)
	chain.Dispatch(http.NewRequest("GET", "/fail"), r)
	chain.Dispatch(http.NewRequest("GET", "/missing"), r)

	if s, ok := monitor.Stats("GET /users/:id"); !ok || s.Count != 2 || s.Errors != 0 {
		t.Errorf("Unexpected stats for /users/:id: %+v", s)
	}
	if s, ok := monitor.Stats("GET /fail"); !ok || s.Errors != 1 {
		t.Errorf("Expected one error for /fail: %+v", s)
	}
	if s, ok := monitor.Stats("GET unmatched"); !ok || s.Count != 1 {
		t.Errorf("Expected unmatched request to be recorded: %+v", s)
	}
}

func TestMetricsCountsPanics(t *testing.T) {
	r := router.New()
	r.Add("GET", "/boom", http.HandlerFunc(func(req *http.Request, res *http.Response) *http.Response {
		panic("boom")
	}))

	monitor := observability.NewMonitor()
	chain := NewChain().Use(Recovery(zerolog.Nop())).Use(Metrics(monitor))

	res := chain.Dispatch(http.NewRequest("GET", "/boom"), r)
	if res.Status != 500 {
		t.Errorf("Expected status 500, got %d", res.Status)
	}

	s, ok := monitor.Stats("GET /boom")
	if !ok || s.Count != 1 || s.Errors != 1 {
		t.Errorf("Expected panicking request recorded as an error: %+v", s)
	}
	if requests, errors := monitor.Totals(); requests != 1 || errors != 1 {
		t.Errorf("Expected totals 1/1, got %d/%d", requests, errors)
	}
}
