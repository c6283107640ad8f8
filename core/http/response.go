package http

import (
	"strings"

	"github.com/searchktools/quickly/core/codec"
)

// Content types set by the response helpers
const (
	ContentTypeText = "text/plain"
	ContentTypeJSON = "application/json"
)

// Response is an HTTP response built through chained mutations.
// Every mutator returns the receiver so calls can be chained; none of them fail.
type Response struct {
	Status int
	Header Header
	Body   string
}

// NewResponse returns a 200 response with an empty body and a text/plain content type
func NewResponse() *Response {
	return NewResponseWith(200, "")
}

// NewResponseWith returns a response with the given status and body
func NewResponseWith(status int, body string) *Response {
	r := &Response{Status: status, Body: body}
	r.Header.Set("Content-Type", ContentTypeText)
	return r
}

// WithStatus sets the status code
func (r *Response) WithStatus(code int) *Response {
	r.Status = code
	return r
}

// Send replaces the body, leaving the content type as is
func (r *Response) Send(body string) *Response {
	r.Body = body
	return r
}

// JSON replaces the body with an already-encoded JSON document
func (r *Response) JSON(body string) *Response {
	r.Header.Set("Content-Type", ContentTypeJSON)
	r.Body = body
	return r
}

// SetHeader sets a response header
func (r *Response) SetHeader(key, value string) *Response {
	r.Header.Set(key, value)
	return r
}

// Cookie sets the Set-Cookie header to "name=value; options".
// A later Cookie or ClearCookie call replaces it.
func (r *Response) Cookie(name, value, options string) *Response {
	var b strings.Builder
	b.WriteString(stripCRLF(name))
	b.WriteByte('=')
	b.WriteString(stripCRLF(value))
	if options != "" {
		b.WriteString("; ")
		b.WriteString(stripCRLF(options))
	}
	r.Header.Set("Set-Cookie", b.String())
	return r
}

// ClearCookie expires the named cookie
func (r *Response) ClearCookie(name string) *Response {
	r.Header.Set("Set-Cookie", stripCRLF(name)+"=; Max-Age=0")
	return r
}

// Encode encodes v with the codec and sets the matching content type.
// An encoding failure turns the response into a 500.
func (r *Response) Encode(c codec.Codec, v any) *Response {
	data, err := c.Encode(v)
	if err != nil {
		r.Status = 500
		r.Header.Set("Content-Type", ContentTypeText)
		r.Body = "Internal Server Error"
		return r
	}
	r.Header.Set("Content-Type", c.ContentType())
	r.Body = string(data)
	return r
}

// Bytes serializes the response to wire format
func (r *Response) Bytes() []byte {
	return AppendResponse(make([]byte, 0, 64+len(r.Body)), r)
}

// String serializes the response to wire format
func (r *Response) String() string {
	return string(r.Bytes())
}

func stripCRLF(s string) string {
	return crlfStripper.Replace(s)
}
