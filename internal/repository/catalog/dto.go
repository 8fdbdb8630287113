package catalog

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/answerdex/internal/domain/product"
)

// Hash field names. content duplicates title+description so BM25 can
// match either in one field; the index also exposes them separately.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldContent     = "content"
	fieldVector      = "vector"
)

// buildHashFields converts a product into a flat map[string]string for HSET.
func buildHashFields(p *product.Product) map[string]string {
	return map[string]string{
		fieldTitle:       p.Title(),
		fieldDescription: p.Description(),
		fieldContent:     p.EmbeddingText(),
		fieldVector:      vectorToBytes(p.Vector()),
	}
}

// parseHashFields converts a flat hash map back into a product.
func parseHashFields(id string, m map[string]string) (product.Product, error) {
	p, err := product.New(id, m[fieldTitle], m[fieldDescription], bytesToVector(m[fieldVector]))
	if err != nil {
		return product.Product{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	return p, nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
// Empty or malformed input yields nil, matching a not-yet-embedded product.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
