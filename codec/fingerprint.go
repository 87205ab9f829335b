package codec

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/fedlang/fedir/blocks"
)

// Fingerprint returns the blake3-256 digest of a tree's exchange encoding.
// Structurally equal trees encode identically, so the digest serves as a
// content-addressed identity and cache key.
func Fingerprint(n blocks.Node) ([32]byte, error) {
	wire, err := Encode(n)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(wire), nil
}

// HexFingerprint renders Fingerprint as lowercase hex.
func HexFingerprint(n blocks.Node) (string, error) {
	sum, err := Fingerprint(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum[:]), nil
}
