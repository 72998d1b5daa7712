package account

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/twiterfame/sdk/internal/crypto"
)

var ErrInvalidMnemonic = errors.New("account: invalid mnemonic")

const (
	mnemonicEntropyBytes = 32
	secretDerivationTag  = "sdk/account/secret/v1"
)

// GenerateWithMnemonic draws entropy from rng and returns both the secret
// key and the BIP-39 phrase that reconstructs it. The phrase is produced
// only at creation time; it cannot be recovered from the key afterwards.
func GenerateWithMnemonic(rng io.Reader) (*SecretKey, string, error) {
	entropy := make([]byte, mnemonicEntropyBytes)
	if _, err := io.ReadFull(rng, entropy); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	key, err := FromMnemonic(mnemonic)
	if err != nil {
		return nil, "", err
	}
	return key, mnemonic, nil
}

// FromMnemonic deterministically reconstructs the secret key backed up by a
// BIP-39 phrase.
func FromMnemonic(mnemonic string) (*SecretKey, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, "")
	return &SecretKey{scalar: crypto.Default().HashToScalar(secretDerivationTag, seed)}, nil
}

// ValidateMnemonic reports whether a phrase is a well-formed BIP-39
// mnemonic without deriving anything from it.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}
