package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/twiterfame/sdk/internal/testutil/entropy"
)

func TestSampleScalarDeterministicFromFixedEntropy(t *testing.T) {
	suite := Default()
	s1, err := suite.SampleScalar(entropy.Reader("sample"))
	if err != nil {
		t.Fatalf("sample 1 failed: %v", err)
	}
	s2, err := suite.SampleScalar(entropy.Reader("sample"))
	if err != nil {
		t.Fatalf("sample 2 failed: %v", err)
	}
	if !s1.Equal(s2) {
		t.Fatal("same entropy stream should produce the same scalar")
	}
	s3, err := suite.SampleScalar(entropy.Reader("other"))
	if err != nil {
		t.Fatalf("sample 3 failed: %v", err)
	}
	if s1.Equal(s3) {
		t.Fatal("different entropy streams should produce different scalars")
	}
}

func TestSampleScalarSurfacesEntropyFailure(t *testing.T) {
	if _, err := Default().SampleScalar(bytes.NewReader(nil)); !errors.Is(err, ErrEntropyFailure) {
		t.Fatalf("expected ErrEntropyFailure, got %v", err)
	}
}

func TestHashToScalarDeterministicAndTagSeparated(t *testing.T) {
	suite := Default()
	data := []byte("input")
	a := suite.HashToScalar("tag/a", data)
	b := suite.HashToScalar("tag/a", data)
	if !a.Equal(b) {
		t.Fatal("hash-to-scalar should be deterministic")
	}
	c := suite.HashToScalar("tag/b", data)
	if a.Equal(c) {
		t.Fatal("different tags should land on different scalars")
	}
}

func TestNewScalarRejectsOutOfField(t *testing.T) {
	overflow := bytes.Repeat([]byte{0xff}, ScalarSize)
	if _, err := NewScalar(overflow); !errors.Is(err, ErrScalarOutOfRange) {
		t.Fatalf("expected ErrScalarOutOfRange for overflow, got %v", err)
	}
	zero := make([]byte, ScalarSize)
	if _, err := NewScalar(zero); !errors.Is(err, ErrScalarOutOfRange) {
		t.Fatalf("expected ErrScalarOutOfRange for zero, got %v", err)
	}
	if _, err := NewScalar([]byte{0x01}); !errors.Is(err, ErrScalarOutOfRange) {
		t.Fatalf("expected ErrScalarOutOfRange for short input, got %v", err)
	}
}

func TestScalarBytesRoundTrip(t *testing.T) {
	s, err := Default().SampleScalar(entropy.Reader("round-trip"))
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	back, err := NewScalar(s.Bytes())
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if !s.Equal(back) {
		t.Fatal("scalar bytes round-trip mismatch")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	suite := Default()
	view, err := suite.SampleScalar(entropy.Reader("view"))
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	recipient := suite.BaseMult(view)

	plaintext := []byte("confidential payload")
	box, err := suite.Seal(entropy.Reader("seal"), recipient, plaintext)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	got, err := suite.Open(view, box)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("plaintext mismatch: %q", got)
	}
}

func TestOpenRejectsWrongScalar(t *testing.T) {
	suite := Default()
	view, _ := suite.SampleScalar(entropy.Reader("view"))
	other, _ := suite.SampleScalar(entropy.Reader("other-view"))

	box, err := suite.Seal(entropy.Reader("seal"), suite.BaseMult(view), []byte("payload"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := suite.Open(other, box); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	suite := Default()
	view, _ := suite.SampleScalar(entropy.Reader("view"))

	box, err := suite.Seal(entropy.Reader("seal"), suite.BaseMult(view), []byte("payload"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	box.Ciphertext[len(box.Ciphertext)-1] ^= 0x01
	if _, err := suite.Open(view, box); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestSealedBoxMarshalRoundTrip(t *testing.T) {
	suite := Default()
	view, _ := suite.SampleScalar(entropy.Reader("view"))

	box, err := suite.Seal(entropy.Reader("seal"), suite.BaseMult(view), []byte("payload"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	back, err := ParseSealedBox(box.Marshal())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !back.Ephemeral.Equal(box.Ephemeral) {
		t.Fatal("ephemeral point mismatch")
	}
	if !bytes.Equal(back.Nonce, box.Nonce) || !bytes.Equal(back.Ciphertext, box.Ciphertext) {
		t.Fatal("nonce or ciphertext mismatch")
	}
}

func TestParseSealedBoxRejectsMalformedInput(t *testing.T) {
	if _, err := ParseSealedBox([]byte("short")); !errors.Is(err, ErrInvalidBox) {
		t.Fatalf("expected ErrInvalidBox for short input, got %v", err)
	}
	// Right length, but the leading bytes are not a valid compressed point.
	junk := bytes.Repeat([]byte{0x5a}, 128)
	if _, err := ParseSealedBox(junk); !errors.Is(err, ErrInvalidBox) {
		t.Fatalf("expected ErrInvalidBox for off-curve input, got %v", err)
	}
}
