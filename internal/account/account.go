// Package account implements the key hierarchy: a root secret key, the view
// key derived one-way from it, and the public address both of them resolve
// to. All three are immutable value types; derivations are pure and
// recomputed on every call.
package account

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/twiterfame/sdk/internal/codec"
	"github.com/twiterfame/sdk/internal/crypto"
)

var ErrGenerationFailed = errors.New("account: key generation failed")

const viewDerivationTag = "sdk/account/view/v1"

// SecretKey is the root secret of an account. Everything else is a pure
// function of it.
type SecretKey struct {
	scalar *crypto.Scalar
}

// Generate draws a fresh secret key from the operating system entropy
// source.
func Generate() (*SecretKey, error) {
	return GenerateFromRand(rand.Reader)
}

// GenerateFromRand draws a fresh secret key from rng. Entropy failures
// surface as ErrGenerationFailed; no partial key is ever returned.
func GenerateFromRand(rng io.Reader) (*SecretKey, error) {
	scalar, err := crypto.Default().SampleScalar(rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return &SecretKey{scalar: scalar}, nil
}

// ParseSecretKey decodes the canonical text form. Malformed tokens fail with
// a codec error; structurally valid tokens whose value is outside the scalar
// field fail with crypto.ErrScalarOutOfRange.
func ParseSecretKey(token string) (*SecretKey, error) {
	payload, err := codec.DecodeKey(codec.SecretKeyPrefix, token)
	if err != nil {
		return nil, err
	}
	scalar, err := crypto.NewScalar(payload)
	if err != nil {
		return nil, err
	}
	return &SecretKey{scalar: scalar}, nil
}

func (k *SecretKey) String() string {
	return codec.EncodeKey(codec.SecretKeyPrefix, k.scalar.Bytes())
}

// ViewKey derives the decryption credential. The derivation runs through
// hash-to-scalar, so the view key reveals nothing about the secret key.
func (k *SecretKey) ViewKey() *ViewKey {
	return &ViewKey{scalar: crypto.Default().HashToScalar(viewDerivationTag, k.scalar.Bytes())}
}

// Address derives the public address. It always agrees with deriving the
// view key first and taking its address, because this is that computation.
func (k *SecretKey) Address() *Address {
	return k.ViewKey().Address()
}

func (k *SecretKey) Equal(o *SecretKey) bool {
	if k == nil || o == nil {
		return k == o
	}
	return k.scalar.Equal(o.scalar)
}

// ViewKey is the capability to decrypt records addressed to the
// corresponding address. It has no independent existence: it is always a
// derivation of some secret key.
type ViewKey struct {
	scalar *crypto.Scalar
}

// ParseViewKey decodes the canonical text form.
func ParseViewKey(token string) (*ViewKey, error) {
	payload, err := codec.DecodeKey(codec.ViewKeyPrefix, token)
	if err != nil {
		return nil, err
	}
	scalar, err := crypto.NewScalar(payload)
	if err != nil {
		return nil, err
	}
	return &ViewKey{scalar: scalar}, nil
}

func (v *ViewKey) String() string {
	return codec.EncodeKey(codec.ViewKeyPrefix, v.scalar.Bytes())
}

// Address returns the group element the view key scalar maps to.
func (v *ViewKey) Address() *Address {
	return &Address{point: crypto.Default().BaseMult(v.scalar)}
}

// Scalar exposes the underlying field element for the record layer.
func (v *ViewKey) Scalar() *crypto.Scalar {
	return v.scalar
}

func (v *ViewKey) Equal(o *ViewKey) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.scalar.Equal(o.scalar)
}

// Address is the public, shareable identifier of an account. It carries no
// secret material.
type Address struct {
	point *crypto.Point
}

// ParseAddress decodes the canonical bech32 form, rejecting off-curve
// payloads.
func ParseAddress(token string) (*Address, error) {
	payload, err := codec.DecodeBech32(codec.AddressHRP, token)
	if err != nil {
		return nil, err
	}
	point, err := crypto.ParsePoint(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrInvalidEncoding, err)
	}
	return &Address{point: point}, nil
}

func (a *Address) String() string {
	token, err := codec.EncodeBech32(codec.AddressHRP, a.point.Bytes())
	if err != nil {
		// A fixed-size compressed point always converts; failing here
		// means the group implementation broke its own contract.
		panic(fmt.Sprintf("account: address encoding failed: %v", err))
	}
	return token
}

// Point exposes the underlying group element for the record layer.
func (a *Address) Point() *crypto.Point {
	return a.point
}

func (a *Address) Equal(o *Address) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.point.Equal(o.point)
}
