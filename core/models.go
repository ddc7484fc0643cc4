package core

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored chunks.
// It is generated by content-position hashing so that repeated runs over
// the same sources produce the same IDs and overwrite records in place.
type ID uint64

// IDFromChunk generates a deterministic ID from a chunk's source identifier
// and its sequence position within that source.
func IDFromChunk(source string, seq int) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(source))
	h.Write([]byte{'#'})
	h.Write([]byte(strconv.Itoa(seq)))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex returns the ID as a fixed-width lowercase hex string.
// Backends with string primary keys use this form.
func (id ID) Hex() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Document is a unit of ingested content before chunking.
// Source identifies where the content came from: a repository-relative
// path ("repo/docs/guide.md") or a URL.
type Document struct {
	Source   string
	Title    string
	Content  string
	Metadata map[string]string
}

// Chunk is a contiguous span of a document's content, ready for
// embedding and storage.
type Chunk struct {
	Id       ID
	Source   string
	Seq      int    // position of the chunk within its document, starting at 0
	Text     string
	Metadata map[string]string
	Vector   []float32 // embedding vector (populated by the embedding stage)
}

// NewChunk builds a chunk with its deterministic ID derived from the
// document source and sequence position.
func NewChunk(source string, seq int, text string, metadata map[string]string) *Chunk {
	return &Chunk{
		Id:       IDFromChunk(source, seq),
		Source:   source,
		Seq:      seq,
		Text:     text,
		Metadata: metadata,
	}
}
