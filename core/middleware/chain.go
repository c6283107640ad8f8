package middleware

import (
	"strings"

	"github.com/searchktools/quickly/core/http"
)

// Middleware wraps the rest of the chain.
// It may change req before calling next, skip next entirely, or change the
// response next returns.
type Middleware interface {
	Serve(req *http.Request, next Next) *http.Response
}

// MiddlewareFunc adapts a function to Middleware
type MiddlewareFunc func(req *http.Request, next Next) *http.Response

// Serve calls f(req, next)
func (f MiddlewareFunc) Serve(req *http.Request, next Next) *http.Response {
	return f(req, next)
}

// Endpoint is the innermost link of the chain, normally the router
type Endpoint interface {
	Handle(req *http.Request) *http.Response
}

// EndpointFunc adapts a function to Endpoint
type EndpointFunc func(req *http.Request) *http.Response

// Handle calls f(req)
func (f EndpointFunc) Handle(req *http.Request) *http.Response {
	return f(req)
}

// Descriptor is a registered middleware and its optional path-prefix filter
type Descriptor struct {
	Prefix     string
	Scoped     bool // Prefix applies only when Scoped is set
	Middleware Middleware
}

// Applies reports whether the middleware runs for path
func (d Descriptor) Applies(path string) bool {
	return !d.Scoped || strings.HasPrefix(path, d.Prefix)
}

// Chain is an ordered list of middleware.
// Middleware registered first runs its "before" logic first and its "after" logic last.
type Chain struct {
	descriptors []Descriptor
	frozen      bool
}

// NewChain creates an empty chain
func NewChain() *Chain {
	return &Chain{
		descriptors: make([]Descriptor, 0, 16),
	}
}

// Use appends a middleware that runs for every request
func (c *Chain) Use(mw Middleware) *Chain {
	return c.add(Descriptor{Middleware: mw})
}

// Work appends a middleware that runs only for paths starting with prefix.
// An empty prefix behaves like Use.
func (c *Chain) Work(prefix string, mw Middleware) *Chain {
	return c.add(Descriptor{Prefix: prefix, Scoped: prefix != "", Middleware: mw})
}

func (c *Chain) add(d Descriptor) *Chain {
	if c.frozen {
		panic("middleware: chain is frozen")
	}
	if d.Middleware == nil {
		panic("middleware: nil middleware")
	}
	c.descriptors = append(c.descriptors, d)
	return c
}

// Freeze rejects further registration
func (c *Chain) Freeze() {
	c.frozen = true
}

// Len returns the number of registered middleware
func (c *Chain) Len() int {
	return len(c.descriptors)
}

// Descriptors returns a copy of the registered middleware in order
func (c *Chain) Descriptors() []Descriptor {
	return append([]Descriptor(nil), c.descriptors...)
}

// Dispatch runs req through the chain and then end
func (c *Chain) Dispatch(req *http.Request, end Endpoint) *http.Response {
	res := c.Next(end).Serve(req)
	if res == nil {
		res = http.NewResponse()
	}
	return res
}

// Next returns the continuation for the whole chain, terminating in end
func (c *Chain) Next(end Endpoint) Next {
	return Next{chain: c, end: end}
}

// Next is the remainder of the chain from a given position
type Next struct {
	chain *Chain
	index int
	end   Endpoint
}

// Serve runs the first applicable middleware at or after the current
// position, or the endpoint once the list is exhausted
func (n Next) Serve(req *http.Request) *http.Response {
	if n.chain != nil {
		for i := n.index; i < len(n.chain.descriptors); i++ {
			d := n.chain.descriptors[i]
			if d.Applies(req.Path) {
				return d.Middleware.Serve(req, Next{chain: n.chain, index: i + 1, end: n.end})
			}
		}
	}
	return n.end.Handle(req)
}

// Index returns the position of the next middleware to consider
func (n Next) Index() int {
	return n.index
}
