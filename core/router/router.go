package router

import (
	"strings"

	"github.com/searchktools/quickly/core/http"
)

// NotFoundBody is the body of the response sent when no route matches
const NotFoundBody = "Not Found"

// Route is a registered (method, pattern) pair and its handler
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler

	segments []string
}

// Router matches requests against routes in registration order.
// The first registered route that matches wins.
type Router struct {
	routes []*Route
	index  map[string]int // "METHOD pattern" -> position in routes
}

// New creates an empty router
func New() *Router {
	return &Router{
		index: make(map[string]int),
	}
}

// Add registers a route. Patterns are stored as given; one without a
// leading '/' only matches paths that split into the same segments.
// Registering the same method and pattern again replaces the handler but
// keeps the original position.
func (r *Router) Add(method, pattern string, handler http.Handler) {
	if handler == nil {
		panic("router: nil handler for " + method + " " + pattern)
	}

	key := method + " " + pattern
	if i, ok := r.index[key]; ok {
		r.routes[i].Handler = handler
		return
	}

	r.index[key] = len(r.routes)
	r.routes = append(r.routes, &Route{
		Method:   method,
		Pattern:  pattern,
		Handler:  handler,
		segments: strings.Split(pattern, "/"),
	})
}

// Match finds the first route for method whose pattern matches path.
// It returns nil if nothing matches.
func (r *Router) Match(method, path string) (*Route, http.Params) {
	var segments []string

	for _, route := range r.routes {
		if route.Method != method {
			continue
		}
		if segments == nil {
			segments = strings.Split(path, "/")
		}
		if params, ok := route.match(segments); ok {
			return route, params
		}
	}
	return nil, nil
}

// Handle dispatches req to the matching route.
// Captured params replace req.Params before the handler runs; with no
// matching route the result is a 404.
func (r *Router) Handle(req *http.Request) *http.Response {
	route, params := r.Match(req.Method, req.Path)
	if route == nil {
		return http.NewResponseWith(404, NotFoundBody)
	}

	req.SetParams(params)
	req.Route = route.Pattern

	res := route.Handler.Serve(req, http.NewResponse())
	if res == nil {
		res = http.NewResponse()
	}
	return res
}

// Routes returns the registered routes in registration order
func (r *Router) Routes() []Route {
	routes := make([]Route, len(r.routes))
	for i, route := range r.routes {
		routes[i] = *route
	}
	return routes
}

// Len returns the number of registered routes
func (r *Router) Len() int {
	return len(r.routes)
}

// match walks the pattern and path segments pairwise
func (rt *Route) match(segments []string) (http.Params, bool) {
	if len(segments) != len(rt.segments) {
		return nil, false
	}

	var params http.Params
	for i, seg := range rt.segments {
		if len(seg) > 0 && seg[0] == ':' {
			if params == nil {
				params = make(http.Params)
			}
			params[seg[1:]] = segments[i]
			continue
		}
		if seg != segments[i] {
			return nil, false
		}
	}
	return params, true
}
