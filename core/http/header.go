package http

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// headerField is a single header entry
type headerField struct {
	key   string
	value string
}

// Header is an insertion-ordered header map.
// Keys are case-sensitive; setting an existing key overwrites its value in place.
type Header struct {
	fields []headerField
}

// crlfStripper removes CR and LF so values cannot inject extra header lines
var crlfStripper = strings.NewReplacer("\r", "", "\n", "")

// Set sets a header value (last write wins, original position kept).
// Names that are not valid header field tokens are ignored; CR/LF are stripped from values.
func (h *Header) Set(key, value string) {
	if !httpguts.ValidHeaderFieldName(key) {
		return
	}
	h.put(key, crlfStripper.Replace(value))
}

// put stores a header without validation; used for headers read off the wire
func (h *Header) put(key, value string) {
	for i := range h.fields {
		if h.fields[i].key == key {
			h.fields[i].value = value
			return
		}
	}
	h.fields = append(h.fields, headerField{key: key, value: value})
}

// Get returns the header value, or "" if absent
func (h *Header) Get(key string) string {
	v, _ := h.Lookup(key)
	return v
}

// Lookup returns the header value and whether it is present
func (h *Header) Lookup(key string) (string, bool) {
	for i := range h.fields {
		if h.fields[i].key == key {
			return h.fields[i].value, true
		}
	}
	return "", false
}

// Del removes a header
func (h *Header) Del(key string) {
	for i := range h.fields {
		if h.fields[i].key == key {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
			return
		}
	}
}

// Len returns the number of headers
func (h *Header) Len() int {
	return len(h.fields)
}

// Keys returns header names in insertion order
func (h *Header) Keys() []string {
	keys := make([]string, len(h.fields))
	for i, f := range h.fields {
		keys[i] = f.key
	}
	return keys
}

// Each calls fn for every header in insertion order
func (h *Header) Each(fn func(key, value string)) {
	for _, f := range h.fields {
		fn(f.key, f.value)
	}
}

// Reset removes all headers, keeping capacity
func (h *Header) Reset() {
	h.fields = h.fields[:0]
}
