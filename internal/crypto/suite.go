package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrAuthFailed     = errors.New("authenticated decryption failed")
	ErrInvalidBox     = errors.New("sealed box is invalid")
	ErrEntropyFailure = errors.New("entropy source failed")
)

const sealInfo = "sdk/record/seal/v1"

// Suite is the cryptographic capability consumed by the account and record
// layers: scalar sampling, one-way hashing into the scalar field, group
// exponentiation, and authenticated sealing against a group element.
type Suite interface {
	SampleScalar(rng io.Reader) (*Scalar, error)
	HashToScalar(tag string, data []byte) *Scalar
	BaseMult(k *Scalar) *Point
	Seal(rng io.Reader, recipient *Point, plaintext []byte) (*SealedBox, error)
	Open(view *Scalar, box *SealedBox) ([]byte, error)
}

// Default returns the secp256k1 / XChaCha20-Poly1305 suite.
func Default() Suite {
	return secpSuite{}
}

type secpSuite struct{}

func (secpSuite) SampleScalar(rng io.Reader) (*Scalar, error) {
	// A uniform 32-byte draw overflows the group order with probability
	// below 2^-127, so a small retry bound is more than enough.
	var buf [ScalarSize]byte
	for attempt := 0; attempt < 64; attempt++ {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEntropyFailure, err)
		}
		var s Scalar
		if overflow := s.k.SetByteSlice(buf[:]); overflow || s.k.IsZero() {
			continue
		}
		return &s, nil
	}
	return nil, fmt.Errorf("%w: no scalar in range", ErrEntropyFailure)
}

func (secpSuite) HashToScalar(tag string, data []byte) *Scalar {
	buf := make([]byte, 0, len(tag)+1+len(data)+1)
	buf = append(buf, tag...)
	buf = append(buf, 0)
	buf = append(buf, data...)
	buf = append(buf, 0)
	for ctr := byte(0); ; ctr++ {
		buf[len(buf)-1] = ctr
		digest := blake2b.Sum256(buf)
		var s Scalar
		if overflow := s.k.SetByteSlice(digest[:]); !overflow && !s.k.IsZero() {
			return &s
		}
	}
}

func (secpSuite) BaseMult(k *Scalar) *Point {
	var j secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&k.k, &j)
	j.ToAffine()
	return &Point{p: *secp256k1.NewPublicKey(&j.X, &j.Y)}
}

// SealedBox is an ephemeral-key authenticated encryption of a payload for
// the holder of the scalar behind a recipient group element.
type SealedBox struct {
	Ephemeral  *Point
	Nonce      []byte
	Ciphertext []byte
}

func (s secpSuite) Seal(rng io.Reader, recipient *Point, plaintext []byte) (*SealedBox, error) {
	eph, err := s.SampleScalar(rng)
	if err != nil {
		return nil, err
	}
	ephPub := s.BaseMult(eph)

	key := sharedKey(eph, recipient)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropyFailure, err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, ephPub.Bytes())
	return &SealedBox{
		Ephemeral:  ephPub,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

func (secpSuite) Open(view *Scalar, box *SealedBox) ([]byte, error) {
	key := sharedKey(view, box.Ephemeral)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, box.Nonce, box.Ciphertext, box.Ephemeral.Bytes())
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// Marshal flattens the box into ephemeral point, nonce and ciphertext.
func (b *SealedBox) Marshal() []byte {
	out := make([]byte, 0, PointSize+len(b.Nonce)+len(b.Ciphertext))
	out = append(out, b.Ephemeral.Bytes()...)
	out = append(out, b.Nonce...)
	out = append(out, b.Ciphertext...)
	return out
}

// ParseSealedBox performs the structural checks that do not depend on any
// key: length bounds and an on-curve ephemeral element.
func ParseSealedBox(raw []byte) (*SealedBox, error) {
	const minLen = PointSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(raw) < minLen {
		return nil, ErrInvalidBox
	}
	eph, err := ParsePoint(raw[:PointSize])
	if err != nil {
		return nil, ErrInvalidBox
	}
	nonceEnd := PointSize + chacha20poly1305.NonceSizeX
	return &SealedBox{
		Ephemeral:  eph,
		Nonce:      append([]byte(nil), raw[PointSize:nonceEnd]...),
		Ciphertext: append([]byte(nil), raw[nonceEnd:]...),
	}, nil
}

// sharedKey runs ECDH between a scalar and a group element and stretches the
// compressed shared point into a symmetric key. Both
// (ephemeral, viewScalar*G) and (viewScalar, ephemeral*G) land on the same
// point, which is what makes Open the inverse of Seal.
func sharedKey(k *Scalar, p *Point) []byte {
	var pj, sj secp256k1.JacobianPoint
	p.p.AsJacobian(&pj)
	secp256k1.ScalarMultNonConst(&k.k, &pj, &sj)
	sj.ToAffine()
	shared := secp256k1.NewPublicKey(&sj.X, &sj.Y).SerializeCompressed()
	return kdf32(shared, []byte(sealInfo))
}

func kdf32(input, info []byte) []byte {
	reader := hkdf.New(sha256.New, input, nil, info)
	out := make([]byte, chacha20poly1305.KeySize)
	_, _ = io.ReadFull(reader, out)
	return out
}
