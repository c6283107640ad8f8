package http

// Handler serves a matched request.
// res is a fresh 200 text/plain response the handler may mutate and return.
type Handler interface {
	Serve(req *Request, res *Response) *Response
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(req *Request, res *Response) *Response

// Serve calls f(req, res)
func (f HandlerFunc) Serve(req *Request, res *Response) *Response {
	return f(req, res)
}
