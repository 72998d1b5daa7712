package crypto

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	ErrScalarOutOfRange = errors.New("scalar out of field range")
	ErrInvalidPoint     = errors.New("invalid group element")
)

// ScalarSize is the byte length of a canonical scalar encoding.
const ScalarSize = 32

// PointSize is the byte length of a compressed group element encoding.
const PointSize = 33

// Scalar is an immutable element of the secp256k1 scalar field.
type Scalar struct {
	k secp256k1.ModNScalar
}

// NewScalar interprets b as a big-endian integer and rejects values that are
// zero or not below the group order.
func NewScalar(b []byte) (*Scalar, error) {
	if len(b) != ScalarSize {
		return nil, ErrScalarOutOfRange
	}
	var s Scalar
	if overflow := s.k.SetByteSlice(b); overflow {
		return nil, ErrScalarOutOfRange
	}
	if s.k.IsZero() {
		return nil, ErrScalarOutOfRange
	}
	return &s, nil
}

// Bytes returns the canonical 32-byte big-endian encoding.
func (s *Scalar) Bytes() []byte {
	b := s.k.Bytes()
	return b[:]
}

func (s *Scalar) Equal(o *Scalar) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.k.Equals(&o.k)
}

// Point is an immutable element of the secp256k1 group.
type Point struct {
	p secp256k1.PublicKey
}

// ParsePoint decodes a compressed group element, rejecting off-curve values.
func ParsePoint(b []byte) (*Point, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	return &Point{p: *pub}, nil
}

// Bytes returns the 33-byte compressed encoding.
func (p *Point) Bytes() []byte {
	return p.p.SerializeCompressed()
}

func (p *Point) Equal(o *Point) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.p.IsEqual(&o.p)
}
