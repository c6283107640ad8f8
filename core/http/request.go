package http

import "github.com/searchktools/quickly/core/codec"

// Params holds path parameters bound by the router
type Params map[string]string

// Request is a parsed HTTP request
type Request struct {
	Method string
	Path   string
	Proto  string

	Header Header

	// Body is every line after the blank line, concatenated without terminators
	Body string

	// Params is empty until the router matches the request
	Params Params

	// Route is the pattern of the matched route, set together with Params
	Route string
}

// NewRequest creates a request with an empty header set and no params
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Proto:  "HTTP/1.1",
		Params: make(Params),
	}
}

// Param returns a path parameter, or "" if not bound
func (r *Request) Param(key string) string {
	return r.Params[key]
}

// SetParams replaces the path parameters with params
func (r *Request) SetParams(params Params) {
	r.ClearParams()
	if r.Params == nil {
		r.Params = make(Params, len(params))
	}
	for k, v := range params {
		r.Params[k] = v
	}
}

// ClearParams removes all path parameters
func (r *Request) ClearParams() {
	for k := range r.Params {
		delete(r.Params, k)
	}
}

// Decode decodes the body into v with the given codec
func (r *Request) Decode(c codec.Codec, v any) error {
	return c.Decode([]byte(r.Body), v)
}
