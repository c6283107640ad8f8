package http

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidRequestLine reports a missing or malformed request line
	ErrInvalidRequestLine = errors.New("invalid request line")
)

// ParseRequest parses raw request bytes.
//
// The first line must be "METHOD PATH HTTP/<version>". Lines up to the first
// empty line are headers; a line without a colon is skipped. Every line after
// the empty line is appended to the body with its terminator removed.
func ParseRequest(data []byte) (*Request, error) {
	s := string(data)

	line, rest, ok := nextLine(s)
	if !ok {
		return nil, ErrInvalidRequestLine
	}

	method, path, proto, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	req := NewRequest(method, path)
	req.Proto = proto

	// Headers
	inBody := false
	var body strings.Builder
	for {
		line, rest, ok = nextLine(rest)
		if !ok {
			break
		}

		if line == "" {
			inBody = true
			continue
		}

		if inBody {
			body.WriteString(line)
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		req.Header.put(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	req.Body = body.String()

	return req, nil
}

// parseRequestLine splits "METHOD PATH PROTO" on whitespace
func parseRequestLine(line string) (method, path, proto string, err error) {
	parts := strings.Fields(line)
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "HTTP/") {
		return "", "", "", ErrInvalidRequestLine
	}
	return parts[0], parts[1], parts[2], nil
}

// nextLine returns the next line without its "\n" or "\r\n" terminator.
// A trailing terminator at the end of input does not start another line.
func nextLine(s string) (line, rest string, ok bool) {
	if s == "" {
		return "", "", false
	}

	idx := strings.IndexByte(s, '\n')
	if idx == -1 {
		line, rest = s, ""
	} else {
		line, rest = s[:idx], s[idx+1:]
	}

	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, rest, true
}

// AppendResponse appends the wire form of r to dst.
// Headers are written in insertion order; no Content-Length is added.
func AppendResponse(dst []byte, r *Response) []byte {
	dst = append(dst, "HTTP/1.1 "...)
	dst = appendInt(dst, r.Status)
	dst = append(dst, " OK\r\n"...)

	r.Header.Each(func(key, value string) {
		dst = append(dst, key...)
		dst = append(dst, ": "...)
		dst = append(dst, value...)
		dst = append(dst, "\r\n"...)
	})

	dst = append(dst, "\r\n"...)
	dst = append(dst, r.Body...)
	return dst
}

// appendInt appends an integer to a byte slice
func appendInt(b []byte, i int) []byte {
	if i == 0 {
		return append(b, '0')
	}

	if i < 0 {
		b = append(b, '-')
		i = -i
	}

	var digits [20]byte
	n := 0
	for i > 0 {
		digits[n] = byte('0' + i%10)
		i /= 10
		n++
	}

	for n > 0 {
		n--
		b = append(b, digits[n])
	}

	return b
}
