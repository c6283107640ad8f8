package middleware

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchktools/quickly/core/http"
	"github.com/searchktools/quickly/core/observability"
)

// Recovery turns a panic further down the chain into a 500 response
func Recovery(log zerolog.Logger) Middleware {
	return MiddlewareFunc(func(req *http.Request, next Next) (res *http.Response) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("panic", err).
					Str("method", req.Method).
					Str("path", req.Path).
					Msg("panic recovered")
				res = http.NewResponseWith(500, "Internal Server Error")
			}
		}()
		return next.Serve(req)
	})
}

// Logger logs one line per request after the response is produced
func Logger(log zerolog.Logger) Middleware {
	return MiddlewareFunc(func(req *http.Request, next Next) *http.Response {
		start := time.Now()
		res := next.Serve(req)

		status := 0
		if res != nil {
			status = res.Status
		}
		log.Info().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return res
	})
}

// CORS adds CORS headers and answers OPTIONS requests directly
func CORS() Middleware {
	setHeaders := func(res *http.Response) *http.Response {
		return res.
			SetHeader("Access-Control-Allow-Origin", "*").
			SetHeader("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS").
			SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization")
	}

	return MiddlewareFunc(func(req *http.Request, next Next) *http.Response {
		if req.Method == "OPTIONS" {
			return setHeaders(http.NewResponseWith(204, ""))
		}

		res := next.Serve(req)
		if res == nil {
			return nil
		}
		return setHeaders(res)
	})
}

// RateLimiter allows at most requestsPerSecond requests per one-second window
func RateLimiter(requestsPerSecond int) Middleware {
	var (
		tokens     int
		lastRefill time.Time
		mu         sync.Mutex
	)

	tokens = requestsPerSecond
	lastRefill = time.Now()

	return MiddlewareFunc(func(req *http.Request, next Next) *http.Response {
		mu.Lock()

		now := time.Now()
		if now.Sub(lastRefill) > time.Second {
			tokens = requestsPerSecond
			lastRefill = now
		}

		if tokens > 0 {
			tokens--
			mu.Unlock()
			return next.Serve(req)
		}

		mu.Unlock()

		return http.NewResponseWith(429, "").JSON(`{"error":"Too Many Requests"}`)
	})
}

// RequestIDHeader carries the id assigned by RequestID
const RequestIDHeader = "X-Request-ID"

// RequestID tags the request and response with an increasing id.
// An id already present on the request is kept.
func RequestID() Middleware {
	var counter uint64

	return MiddlewareFunc(func(req *http.Request, next Next) *http.Response {
		id, ok := req.Header.Lookup(RequestIDHeader)
		if !ok || id == "" {
			id = strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
			req.Header.Set(RequestIDHeader, id)
		}

		res := next.Serve(req)
		if res != nil {
			res.SetHeader(RequestIDHeader, id)
		}
		return res
	})
}

// Metrics records the duration of each request in m, keyed by method and
// matched route pattern. Responses with a 5xx status and panics passing
// through count as errors; the panic itself is not stopped.
func Metrics(m *observability.Monitor) Middleware {
	return MiddlewareFunc(func(req *http.Request, next Next) (res *http.Response) {
		start := time.Now()
		panicked := true

		defer func() {
			route := req.Route
			if route == "" {
				route = "unmatched"
			}
			failed := panicked || res == nil || res.Status >= 500
			m.RecordRequest(req.Method+" "+route, time.Since(start), failed)
		}()

		res = next.Serve(req)
		panicked = false
		return res
	})
}
