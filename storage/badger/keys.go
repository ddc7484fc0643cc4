package badger

import (
	"fmt"

	"github.com/scribelab/docvec/core"
)

// Key prefixes for the stored data types.
const (
	chunkPrefix   = "chunk"
	dimensionMeta = "meta:dim"
)

// chunkKey generates the key for a chunk record by id.
func chunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// dimensionKey is the meta key holding the provisioned vector width.
func dimensionKey() []byte {
	return []byte(dimensionMeta)
}
