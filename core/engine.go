package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"

	"github.com/searchktools/quickly/core/http"
	"github.com/searchktools/quickly/core/middleware"
	"github.com/searchktools/quickly/core/pools"
	"github.com/searchktools/quickly/core/router"
)

// Options configures an Engine
type Options struct {
	// Host is the address Run binds to; defaults to loopback
	Host string

	// ReadBufferSize is the size of the single read per connection.
	// Requests larger than this are truncated.
	ReadBufferSize int

	// ReadTimeout and WriteTimeout bound connection I/O; zero means no deadline
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Workers > 0 handles connections concurrently on a worker pool.
	// Zero serves one connection at a time.
	Workers int

	// MaxConnections caps concurrently open connections when Workers > 0
	MaxConnections int

	Logger *zerolog.Logger
}

// Engine owns the route table and middleware chain and serves connections.
// Routes and middleware must be registered before serving starts; after that
// both are read-only and shared by every connection.
type Engine struct {
	router *router.Router
	chain  *middleware.Chain
	log    zerolog.Logger

	host           string
	readBufferSize int
	readTimeout    time.Duration
	writeTimeout   time.Duration
	workers        int
	maxConnections int

	bytePool   *pools.BytePool
	workerPool *pools.WorkerPool

	frozen  atomic.Bool
	closing atomic.Bool

	mu       sync.Mutex
	listener net.Listener

	stats struct {
		accepted     atomic.Uint64
		acceptErrors atomic.Uint64
		served       atomic.Uint64
		failed       atomic.Uint64
	}
}

// NewEngine creates an engine with default options
func NewEngine() *Engine {
	return NewEngineWithOptions(Options{})
}

// NewEngineWithOptions creates an engine; zero fields take their defaults
func NewEngineWithOptions(opts Options) *Engine {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultReadBufferSize
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Engine{
		router:         router.New(),
		chain:          middleware.NewChain(),
		log:            log,
		host:           opts.Host,
		readBufferSize: opts.ReadBufferSize,
		readTimeout:    opts.ReadTimeout,
		writeTimeout:   opts.WriteTimeout,
		workers:        opts.Workers,
		maxConnections: opts.MaxConnections,
		bytePool:       pools.NewBytePool(),
	}
}

// Router returns the route table
func (e *Engine) Router() *router.Router {
	return e.router
}

// Chain returns the middleware chain
func (e *Engine) Chain() *middleware.Chain {
	return e.chain
}

// Handle registers a route for an arbitrary method
func (e *Engine) Handle(method, path string, handler http.Handler) {
	e.mustNotBeFrozen()
	e.router.Add(method, path, handler)
}

// GET registers a GET route
func (e *Engine) GET(path string, handler http.Handler) {
	e.Handle(MethodGet, path, handler)
}

// POST registers a POST route
func (e *Engine) POST(path string, handler http.Handler) {
	e.Handle(MethodPost, path, handler)
}

// PUT registers a PUT route
func (e *Engine) PUT(path string, handler http.Handler) {
	e.Handle(MethodPut, path, handler)
}

// DELETE registers a DELETE route
func (e *Engine) DELETE(path string, handler http.Handler) {
	e.Handle(MethodDelete, path, handler)
}

// PATCH registers a PATCH route
func (e *Engine) PATCH(path string, handler http.Handler) {
	e.Handle(MethodPatch, path, handler)
}

// OPTIONS registers an OPTIONS route
func (e *Engine) OPTIONS(path string, handler http.Handler) {
	e.Handle(MethodOptions, path, handler)
}

// HEAD registers a HEAD route
func (e *Engine) HEAD(path string, handler http.Handler) {
	e.Handle(MethodHead, path, handler)
}

// Use registers a middleware for every request
func (e *Engine) Use(mw middleware.Middleware) {
	e.mustNotBeFrozen()
	e.chain.Use(mw)
}

// Work registers a middleware for paths starting with prefix.
// An empty prefix applies it to every request.
func (e *Engine) Work(prefix string, mw middleware.Middleware) {
	e.mustNotBeFrozen()
	e.chain.Work(prefix, mw)
}

func (e *Engine) mustNotBeFrozen() {
	if e.frozen.Load() {
		panic("engine: cannot register routes or middleware after serving started")
	}
}

func (e *Engine) freeze() {
	if e.frozen.CompareAndSwap(false, true) {
		e.chain.Freeze()
	}
}

// Serve turns raw request bytes into a response.
// Unparseable input yields a 400 and a panic below the chain yields a 500;
// everything else goes through the middleware chain and the router.
func (e *Engine) Serve(raw []byte) (res *http.Response) {
	req, err := http.ParseRequest(raw)
	if err != nil {
		e.log.Debug().Err(err).Msg("rejecting request")
		return http.NewResponseWith(400, BadRequestBody)
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Interface("panic", r).
				Str("method", req.Method).
				Str("path", req.Path).
				Msg("unrecovered handler panic")
			res = http.NewResponseWith(500, InternalErrorBody)
		}
	}()

	return e.chain.Dispatch(req, e.router)
}

// ServeConn reads one request from conn, writes one response and closes it
func (e *Engine) ServeConn(conn net.Conn) error {
	defer conn.Close()

	buf := e.bytePool.Get(e.readBufferSize)
	defer e.bytePool.Put(buf)

	if e.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(e.readTimeout))
	}
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read request: %w", err)
	}

	res := e.Serve(buf[:n])

	out := e.bytePool.Get(e.readBufferSize)
	defer e.bytePool.Put(out)

	if e.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	}
	if _, err := conn.Write(http.AppendResponse(out[:0], res)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Run binds host:port and serves until Shutdown is called.
// A bind failure is returned immediately.
func (e *Engine) Run(port int) error {
	addr := net.JoinHostPort(e.host, strconv.Itoa(port))

	lc := net.ListenConfig{Control: listenControl}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	return e.RunListener(ln)
}

// RunListener serves connections accepted from ln until Shutdown is called.
// Accept failures such as running out of file descriptors are logged and
// retried with a growing delay; only a closed listener ends the loop early.
func (e *Engine) RunListener(ln net.Listener) error {
	e.freeze()

	if e.workers > 0 && e.maxConnections > 0 {
		ln = netutil.LimitListener(ln, e.maxConnections)
	}

	e.mu.Lock()
	if e.closing.Load() {
		e.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	e.listener = ln
	e.mu.Unlock()
	defer ln.Close()

	var wp *pools.WorkerPool
	if e.workers > 0 {
		wp = pools.NewWorkerPool(e.workers, DefaultWorkerQueue)
		defer wp.Close()

		e.mu.Lock()
		e.workerPool = wp
		e.mu.Unlock()
	}

	e.log.Info().
		Str("addr", ln.Addr().String()).
		Int("routes", e.router.Len()).
		Int("middleware", e.chain.Len()).
		Int("workers", e.workers).
		Msg("listening")

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if e.closing.Load() {
				return nil
			}
			// A listener closed behind our back can never accept again
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}

			delay = acceptBackoff(delay)
			e.stats.acceptErrors.Add(1)
			e.log.Error().Err(err).Dur("retry_in", delay).Msg("accept failed")
			time.Sleep(delay)
			continue
		}
		delay = 0

		e.stats.accepted.Add(1)

		if wp != nil {
			wp.Submit(func() { e.handleConn(conn) })
		} else {
			e.handleConn(conn)
		}
	}
}

// acceptBackoff doubles the previous delay, starting at
// MinAcceptBackoff and capped at MaxAcceptBackoff
func acceptBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		return MinAcceptBackoff
	}
	if next := prev * 2; next < MaxAcceptBackoff {
		return next
	}
	return MaxAcceptBackoff
}

// handleConn serves conn and logs failures without stopping the accept loop
func (e *Engine) handleConn(conn net.Conn) {
	if err := e.ServeConn(conn); err != nil {
		e.stats.failed.Add(1)
		e.log.Error().
			Err(err).
			Str("remote", conn.RemoteAddr().String()).
			Msg("connection failed")
		return
	}
	e.stats.served.Add(1)
}

// Addr returns the listening address, or nil before serving starts
func (e *Engine) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

// Shutdown stops accepting connections; Run then returns nil.
// Connections already queued on the worker pool are finished first.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closing.CompareAndSwap(false, true) {
		return nil
	}
	if e.listener == nil {
		return nil
	}
	return e.listener.Close()
}
