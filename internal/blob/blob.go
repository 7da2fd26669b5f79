// Package blob encodes fitted artifacts as versioned, self-describing byte
// slices.
package blob

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

type envelope struct {
	Kind    string          `json:"kind"`
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps v in an envelope tagged with kind and version.
func Encode(kind string, version int, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	data, err := json.Marshal(envelope{Kind: kind, Version: version, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", kind, err)
	}
	return data, nil
}

// Decode unwraps data into v, checking kind and version.
func Decode(data []byte, kind string, version int, v any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal %s envelope: %w", kind, err)
	}
	if env.Kind != kind {
		return fmt.Errorf("blob kind %q, want %q", env.Kind, kind)
	}
	if env.Version != version {
		return fmt.Errorf("%s blob version %d, want %d", kind, env.Version, version)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", kind, err)
	}
	return nil
}

// Float64sToBytes packs floats little-endian.
func Float64sToBytes(floats []float64) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*8)
	for i, f := range floats {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// BytesToFloat64s reverses Float64sToBytes.
func BytesToFloat64s(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("float blob length %d is not a multiple of 8", len(data))
	}
	if len(data) == 0 {
		return nil, nil
	}
	floats := make([]float64, len(data)/8)
	for i := range floats {
		floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return floats, nil
}
