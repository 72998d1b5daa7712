// Package entropy provides a deterministic randomness stream for tests that
// need reproducible keys and ciphertexts.
package entropy

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Reader returns a deterministic stream seeded by the given label. Two
// readers with the same label produce identical bytes.
func Reader(label string) io.Reader {
	return hkdf.New(sha256.New, []byte(label), nil, []byte("sdk/test-entropy/v1"))
}
