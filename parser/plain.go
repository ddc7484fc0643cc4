package parser

import "strings"

var _ Parser = Plain{}

// Plain passes text formats through unchanged, dropping any bytes that
// are not valid UTF-8.
type Plain struct{}

func (Plain) Parse(data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), ""), nil
}
