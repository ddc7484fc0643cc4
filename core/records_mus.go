package core

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/mus-format/mus-go/varint"
)

// ErrTruncatedRecord indicates a serialized chunk could not be decoded.
var ErrTruncatedRecord = errors.New("truncated record")

// IDMUS serializes IDs in the MUS format (varint).
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	num, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	return ID(num), n, nil
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

// ChunkMUS serializes Chunks in the MUS format: varint id and sequence,
// length-prefixed strings and metadata pairs, and a fixed 4-byte
// little-endian encoding per vector component.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += marshalString(v.Source, bs[n:])
	n += varint.Int.Marshal(v.Seq, bs[n:])
	n += marshalString(v.Text, bs[n:])
	n += varint.Int.Marshal(len(v.Metadata), bs[n:])
	for k, val := range v.Metadata {
		n += marshalString(k, bs[n:])
		n += marshalString(val, bs[n:])
	}
	n += varint.Int.Marshal(len(v.Vector), bs[n:])
	for _, f := range v.Vector {
		binary.LittleEndian.PutUint32(bs[n:], math.Float32bits(f))
		n += 4
	}
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Source, n1, err = unmarshalString(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Seq, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = unmarshalString(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var pairs int
	pairs, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if pairs < 0 {
		err = ErrTruncatedRecord
		return
	}
	if pairs > 0 {
		v.Metadata = make(map[string]string, pairs)
		for i := 0; i < pairs; i++ {
			var key, val string
			key, n1, err = unmarshalString(bs[n:])
			n += n1
			if err != nil {
				return
			}
			val, n1, err = unmarshalString(bs[n:])
			n += n1
			if err != nil {
				return
			}
			v.Metadata[key] = val
		}
	}

	var dims int
	dims, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if dims < 0 || n+4*dims > len(bs) {
		err = ErrTruncatedRecord
		return
	}
	if dims > 0 {
		v.Vector = make([]float32, dims)
		for i := range v.Vector {
			v.Vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(bs[n:]))
			n += 4
		}
	}
	return
}

func (chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += sizeString(v.Source)
	size += varint.Int.Size(v.Seq)
	size += sizeString(v.Text)
	size += varint.Int.Size(len(v.Metadata))
	for k, val := range v.Metadata {
		size += sizeString(k) + sizeString(val)
	}
	size += varint.Int.Size(len(v.Vector))
	size += 4 * len(v.Vector)
	return size
}

func marshalString(v string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	n += copy(bs[n:], v)
	return n
}

func unmarshalString(bs []byte) (v string, n int, err error) {
	l, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return "", n, err
	}
	if l < 0 || n+l > len(bs) {
		return "", n, ErrTruncatedRecord
	}
	return string(bs[n : n+l]), n + l, nil
}

func sizeString(v string) int {
	return varint.Int.Size(len(v)) + len(v)
}
