package vector

import (
	"math"
	"testing"
)

func TestEncodeDecodeVectors(t *testing.T) {
	vectors := [][]float32{
		{1.5, -2.25, 0},
		{0.001, 1e6, -0.5},
	}
	payload := encodeVectors(3, vectors)

	dim, decoded, err := decodeVectors(payload)
	if err != nil {
		t.Fatalf("decodeVectors: %v", err)
	}
	if dim != 3 {
		t.Errorf("dim = %d, want 3", dim)
	}
	if len(decoded) != len(vectors) {
		t.Fatalf("count = %d, want %d", len(decoded), len(vectors))
	}
	for i := range vectors {
		for j := range vectors[i] {
			if decoded[i][j] != vectors[i][j] {
				t.Errorf("decoded[%d][%d] = %v, want %v", i, j, decoded[i][j], vectors[i][j])
			}
		}
	}
}

func TestEncodeDecodeEmpty(t *testing.T) {
	payload := encodeVectors(384, nil)
	dim, decoded, err := decodeVectors(payload)
	if err != nil {
		t.Fatalf("decodeVectors: %v", err)
	}
	if dim != 384 || len(decoded) != 0 {
		t.Errorf("got dim=%d count=%d, want 384/0", dim, len(decoded))
	}
}

func TestDecodeVectorsRejectsCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"too short", []byte{1, 2}},
		{"truncated body", encodeVectors(4, [][]float32{{1, 2, 3, 4}})[:12]},
		{"zero dimension", []byte{0, 0, 0, 0, 1, 0, 0, 0}},
		{"trailing garbage", append(encodeVectors(2, [][]float32{{1, 2}}), 0xFF)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := decodeVectors(tt.payload); err == nil {
				t.Error("expected error for corrupt payload")
			}
		})
	}
}

func TestEncodeDecodeSpecialValues(t *testing.T) {
	vectors := [][]float32{{float32(math.Inf(1)), -0, 3.4e38}}
	_, decoded, err := decodeVectors(encodeVectors(3, vectors))
	if err != nil {
		t.Fatalf("decodeVectors: %v", err)
	}
	if !math.IsInf(float64(decoded[0][0]), 1) {
		t.Errorf("decoded[0][0] = %v, want +Inf", decoded[0][0])
	}
}
