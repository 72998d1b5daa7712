// Package codec implements the canonical text forms for account entities.
// Key material uses a string prefix plus base58 with a BLAKE2b checksum;
// addresses and record ciphertexts use bech32. Every entity carries a
// distinct prefix so a token of one type never decodes as another.
package codec

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// SecretKeyPrefix starts every encoded secret key.
	SecretKeyPrefix = "asecret1"
	// ViewKeyPrefix starts every encoded view key.
	ViewKeyPrefix = "aview1"
	// AddressHRP is the bech32 human-readable part of an address.
	AddressHRP = "account"
	// RecordHRP is the bech32 human-readable part of a record ciphertext.
	RecordHRP = "record"
)

const checksumSize = 4

var (
	ErrWrongPrefix      = errors.New("codec: wrong token prefix")
	ErrInvalidEncoding  = errors.New("codec: invalid token encoding")
	ErrChecksumMismatch = errors.New("codec: token checksum mismatch")
)

// EncodeKey produces prefix + base58(payload || checksum). The checksum
// covers the prefix too, so the same payload under a different prefix fails
// the checksum rather than silently changing type.
func EncodeKey(prefix string, payload []byte) string {
	body := make([]byte, 0, len(payload)+checksumSize)
	body = append(body, payload...)
	body = append(body, checksum(prefix, payload)...)
	return prefix + base58.Encode(body)
}

// DecodeKey reverses EncodeKey and validates prefix and checksum.
func DecodeKey(prefix, token string) ([]byte, error) {
	if !strings.HasPrefix(token, prefix) {
		return nil, ErrWrongPrefix
	}
	body, err := base58.Decode(token[len(prefix):])
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if len(body) <= checksumSize {
		return nil, ErrInvalidEncoding
	}
	payload := body[:len(body)-checksumSize]
	want := checksum(prefix, payload)
	got := body[len(body)-checksumSize:]
	for i := range want {
		if want[i] != got[i] {
			return nil, ErrChecksumMismatch
		}
	}
	return append([]byte(nil), payload...), nil
}

// EncodeBech32 encodes payload under the given human-readable part. Record
// ciphertexts routinely exceed the 90-character convention, which is why
// decoding goes through the unlimited-length path.
func EncodeBech32(hrp string, payload []byte) (string, error) {
	grouped, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, grouped)
}

// DecodeBech32 decodes a bech32 token and enforces the expected
// human-readable part.
func DecodeBech32(hrp, token string) ([]byte, error) {
	gotHRP, grouped, err := bech32.DecodeNoLimit(token)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if gotHRP != hrp {
		return nil, ErrWrongPrefix
	}
	payload, err := bech32.ConvertBits(grouped, 5, 8, false)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return payload, nil
}

func checksum(prefix string, payload []byte) []byte {
	buf := make([]byte, 0, len(prefix)+len(payload))
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	digest := blake2b.Sum256(buf)
	return digest[:checksumSize]
}
