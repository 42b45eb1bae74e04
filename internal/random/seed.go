// Package random supplies seeds for the deterministic dice sources.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed reads a seed from crypto/rand.
func NewSeed() (int64, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}
	return int64(binary.BigEndian.Uint64(buf)), nil
}
