package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var (
	// Protobuf encodes proto messages in binary wire format
	Protobuf Codec = &ProtobufCodec{}

	// ProtoJSON encodes proto messages in their canonical JSON mapping
	ProtoJSON Codec = &ProtoJSONCodec{}
)

// ProtobufCodec implements Protocol Buffers encoding/decoding
type ProtobufCodec struct{}

func (c *ProtobufCodec) Encode(v any) ([]byte, error) {
	msg, err := asMessage(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(msg)
}

func (c *ProtobufCodec) Decode(data []byte, v any) error {
	msg, err := asMessage(v)
	if err != nil {
		return err
	}
	return proto.Unmarshal(data, msg)
}

func (c *ProtobufCodec) Name() string {
	return NameProtobuf
}

func (c *ProtobufCodec) ContentType() string {
	return "application/x-protobuf"
}

// ProtoJSONCodec implements the protobuf JSON mapping
type ProtoJSONCodec struct{}

func (c *ProtoJSONCodec) Encode(v any) ([]byte, error) {
	msg, err := asMessage(v)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(msg)
}

func (c *ProtoJSONCodec) Decode(data []byte, v any) error {
	msg, err := asMessage(v)
	if err != nil {
		return err
	}
	return protojson.Unmarshal(data, msg)
}

func (c *ProtoJSONCodec) Name() string {
	return NameProtoJSON
}

func (c *ProtoJSONCodec) ContentType() string {
	return "application/json"
}

func asMessage(v any) (proto.Message, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%w, got %T", ErrNotProtoMessage, v)
	}
	return msg, nil
}
