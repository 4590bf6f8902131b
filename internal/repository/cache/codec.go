package cache

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Payloads are stored with a one byte header: raw or zstd.
const (
	headerRaw  byte = 'r'
	headerZstd byte = 'z'

	compressThreshold = 512
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// encodePayload сжимает крупные значения; мелкие хранятся как есть
func encodePayload(value []byte) []byte {
	if len(value) < compressThreshold {
		out := make([]byte, 0, len(value)+1)
		out = append(out, headerRaw)
		return append(out, value...)
	}
	out := make([]byte, 1, len(value)/3+1)
	out[0] = headerZstd
	return encoder.EncodeAll(value, out)
}

func decodePayload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty cache payload")
	}
	switch data[0] {
	case headerRaw:
		return data[1:], nil
	case headerZstd:
		out, err := decoder.DecodeAll(data[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown cache payload header %q", data[0])
	}
}
