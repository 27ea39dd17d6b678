package grpcx

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// JSONCodecName is the content subtype selected with
// grpc.CallContentSubtype(JSONCodecName).
const JSONCodecName = "json"

// JSONCodec lets plain Go structs travel over gRPC without generated
// protobuf types.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                       { return JSONCodecName }

func init() {
	encoding.RegisterCodec(JSONCodec{})
}
