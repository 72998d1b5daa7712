// Package keystore persists a secret key under a passphrase. The on-disk
// format is a versioned JSON envelope behind a magic prefix: argon2id
// stretches the passphrase, XChaCha20-Poly1305 seals the key token.
package keystore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/twiterfame/sdk/internal/account"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	filePrefix      = "SDKKEY1\n"

	argonTime     = 2
	argonMemoryKB = 64 * 1024
	argonThreads  = 1

	// argon2.IDKey panics outside these ranges; the memory cap keeps a
	// crafted envelope from turning Load into an allocation bomb.
	maxKDFTime     = 16
	maxKDFMemoryKB = 1 << 20
)

var (
	ErrWrongPassphrase    = errors.New("keystore: wrong passphrase")
	ErrInvalidKeystore    = errors.New("keystore: file is not a valid keystore")
	ErrPassphraseRequired = errors.New("keystore: passphrase is required")
)

type envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// Save writes the secret key to path, sealed under the passphrase.
func Save(path, passphrase string, key *account.SecretKey) error {
	if strings.TrimSpace(passphrase) == "" {
		return ErrPassphraseRequired
	}
	env, err := seal(passphrase, []byte(key.String()))
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(filePrefix), raw...), 0o600)
}

// Load reads and opens the keystore at path.
func Load(path, passphrase string) (*account.SecretKey, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, ErrPassphraseRequired
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	token, err := open(passphrase, raw)
	if err != nil {
		return nil, err
	}
	key, err := account.ParseSecretKey(string(token))
	if err != nil {
		return nil, ErrInvalidKeystore
	}
	return key, nil
}

// ChangePassphrase re-seals the keystore at path under a new passphrase.
func ChangePassphrase(path, oldPassphrase, newPassphrase string) error {
	key, err := Load(path, oldPassphrase)
	if err != nil {
		return err
	}
	return Save(path, newPassphrase, key)
}

func seal(passphrase string, plaintext []byte) (*envelope, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := deriveKey(passphrase, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return &envelope{
		Version:     envelopeVersion,
		KDF:         "argon2id",
		KDFTime:     argonTime,
		KDFMemoryKB: argonMemoryKB,
		KDFThreads:  argonThreads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func open(passphrase string, data []byte) ([]byte, error) {
	if !strings.HasPrefix(string(data), filePrefix) {
		return nil, ErrInvalidKeystore
	}
	var env envelope
	if err := json.Unmarshal(data[len(filePrefix):], &env); err != nil {
		return nil, ErrInvalidKeystore
	}
	if env.Version != envelopeVersion || env.KDF != "argon2id" {
		return nil, ErrInvalidKeystore
	}
	if err := validateKDFParams(&env); err != nil {
		return nil, err
	}
	key := argon2.IDKey([]byte(passphrase), env.Salt, env.KDFTime, env.KDFMemoryKB, env.KDFThreads, chacha20poly1305.KeySize)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

func validateKDFParams(env *envelope) error {
	if env.KDFTime < 1 || env.KDFTime > maxKDFTime {
		return ErrInvalidKeystore
	}
	if env.KDFThreads < 1 {
		return ErrInvalidKeystore
	}
	if env.KDFMemoryKB < 8*uint32(env.KDFThreads) || env.KDFMemoryKB > maxKDFMemoryKB {
		return ErrInvalidKeystore
	}
	if len(env.Salt) != saltSize || len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return ErrInvalidKeystore
	}
	return nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKB, argonThreads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
