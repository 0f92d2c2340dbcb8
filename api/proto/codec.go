package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName matches grpc-go's built-in default codec name ("proto"). This
// package registers its own Codec under that name at init time, which
// overrides the default for every grpc.ClientConn/Server in the process:
// there is no protoc/protoc-gen-go toolchain available to generate real
// wire-compatible protobuf message code for the types in messages.go, so
// wire framing here is plain JSON rather than the protobuf binary format.
// Both ends of every gRPC connection this worker makes (the combiner
// fakes used in tests, and any real counterpart built against this same
// package) agree on the codec, so this is an internal implementation detail
// rather than a public wire contract.
const codecName = "proto"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
