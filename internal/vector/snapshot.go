package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Snapshot payload format, little-endian:
// dimension (uint32), count (uint32), then count*dimension float32 values.

// encodeVectors serializes vectors into a single binary payload.
func encodeVectors(dimension int, vectors [][]float32) []byte {
	buf := make([]byte, 8+len(vectors)*dimension*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(dimension))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(vectors)))
	off := 8
	for _, vec := range vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
			off += 4
		}
	}
	return buf
}

// decodeVectors parses a payload produced by encodeVectors. It validates the
// declared sizes against the payload length before allocating.
func decodeVectors(payload []byte) (int, [][]float32, error) {
	if len(payload) < 8 {
		return 0, nil, fmt.Errorf("payload too short: %d bytes", len(payload))
	}
	dimension := int(binary.LittleEndian.Uint32(payload[0:4]))
	count := int(binary.LittleEndian.Uint32(payload[4:8]))
	if dimension <= 0 {
		return 0, nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	want := 8 + count*dimension*4
	if len(payload) != want {
		return 0, nil, fmt.Errorf("payload size mismatch: got %d bytes, want %d for %d vectors of dimension %d",
			len(payload), want, count, dimension)
	}

	vectors := make([][]float32, count)
	off := 8
	for i := 0; i < count; i++ {
		vec := make([]float32, dimension)
		for j := 0; j < dimension; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}
	return dimension, vectors, nil
}
