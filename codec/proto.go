package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoStruct encodes attribute maps as a google.protobuf.Struct.
// Only JSON-like values are accepted (strings, bools, numbers, nil, nested
// maps and []any); numbers decode as float64.
type ProtoStruct struct{}

var _ Codec[map[string]any] = ProtoStruct{}

func (ProtoStruct) Encode(m map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func (ProtoStruct) Decode(b []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}

// ProtoValue is ProtoStruct for single attribute values.
type ProtoValue struct{}

var _ Codec[any] = ProtoValue{}

func (ProtoValue) Encode(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(pv)
}

func (ProtoValue) Decode(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, err
	}
	return pv.AsInterface(), nil
}
