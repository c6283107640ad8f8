package codec

import (
	"errors"
)

var (
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrNotProtoMessage  = errors.New("value does not implement proto.Message")
)

// Codec encodes and decodes message bodies
type Codec interface {
	// Encode encodes a value to bytes
	Encode(v any) ([]byte, error)

	// Decode decodes bytes to a value
	Decode(data []byte, v any) error

	// Name returns the codec name
	Name() string

	// ContentType returns the Content-Type header value for encoded bodies
	ContentType() string
}

// Codec names
const (
	NameProtobuf  = "protobuf"
	NameProtoJSON = "protojson"
)

// Get returns a codec by name
func Get(name string) (Codec, error) {
	switch name {
	case NameProtobuf:
		return Protobuf, nil
	case NameProtoJSON:
		return ProtoJSON, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

// ForContentType returns the codec producing the given content type
func ForContentType(contentType string) (Codec, error) {
	for _, c := range []Codec{Protobuf, ProtoJSON} {
		if c.ContentType() == contentType {
			return c, nil
		}
	}
	return nil, ErrUnsupportedCodec
}
