package fingerprint

import (
	"encoding/hex"
	"fmt"
	"math/bits"
	"strings"
)

const (
	HashBits  = 256
	HashBytes = HashBits / 8
)

// Hash256 is a 256-bit perceptual hash. Byte 0 holds the most significant
// bits, so the hex form matches the PDQ text representation.
type Hash256 [HashBytes]byte

// Distance returns the Hamming distance between two hashes.
func (h Hash256) Distance(other Hash256) int {
	d := 0
	for i := 0; i < HashBytes; i++ {
		d += bits.OnesCount8(h[i] ^ other[i])
	}
	return d
}

func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

// ParseHash256 parses the 64 character hex form produced by String.
func ParseHash256(s string) (Hash256, error) {
	var h Hash256
	s = strings.TrimSpace(s)
	if len(s) != HashBytes*2 {
		return h, fmt.Errorf("invalid hash length %d (want %d hex chars)", len(s), HashBytes*2)
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return h, nil
}

// hashFromWords packs little-endian-indexed 64-bit words (word 0 holds the
// lowest bits) into a Hash256.
func hashFromWords(words []uint64) Hash256 {
	var h Hash256
	for w := 0; w < len(words) && w < HashBytes/8; w++ {
		base := HashBytes - (w+1)*8
		v := words[w]
		for b := 7; b >= 0; b-- {
			h[base+b] = byte(v)
			v >>= 8
		}
	}
	return h
}
