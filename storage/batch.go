package storage

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/scribelab/docvec/core"
)

// SplitBatches cuts a chunk slice into consecutive sub-batches of at
// most size elements. The last batch may be shorter. Sub-slices share
// the backing array with the input.
func SplitBatches(chunks []*core.Chunk, size int) [][]*core.Chunk {
	if len(chunks) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]*core.Chunk{chunks}
	}

	batches := make([][]*core.Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

// VectorLiteral renders a vector in the bracketed text form accepted
// by pgvector and SQL Server's vector type, e.g. "[0.5,-0.25,1]".
func VectorLiteral(vec []float32) string {
	var sb strings.Builder
	sb.Grow(len(vec)*10 + 2)
	sb.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// VectorBytes encodes a vector as packed little-endian float32 bytes,
// the layout Redis indexes for FLOAT32 vector fields.
func VectorBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// MetadataJSON encodes chunk metadata as a JSON object. Nil and empty
// maps encode as {} so backends never store NULL or JSON null.
func MetadataJSON(meta map[string]string) ([]byte, error) {
	if len(meta) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(meta)
}
