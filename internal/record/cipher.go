package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/twiterfame/sdk/internal/account"
	"github.com/twiterfame/sdk/internal/codec"
	"github.com/twiterfame/sdk/internal/crypto"
)

var (
	// ErrInvalidCiphertext means the input was never a valid record
	// ciphertext for this system, regardless of key.
	ErrInvalidCiphertext = errors.New("record: invalid ciphertext")
	// ErrIncorrectViewKey is the single failure reported for every
	// well-formed ciphertext that does not open under the supplied view
	// key, whether the key is wrong or the data was tampered with.
	ErrIncorrectViewKey = errors.New("record: incorrect view key")
)

// Ciphertext is a parsed record ciphertext token. Parsing validates
// structure only; nothing about it depends on any key.
type Ciphertext struct {
	box *crypto.SealedBox
}

// ParseCiphertext decodes and structurally validates a record ciphertext
// token.
func ParseCiphertext(token string) (*Ciphertext, error) {
	payload, err := codec.DecodeBech32(codec.RecordHRP, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	box, err := crypto.ParseSealedBox(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return &Ciphertext{box: box}, nil
}

func (c *Ciphertext) String() string {
	token, err := codec.EncodeBech32(codec.RecordHRP, c.box.Marshal())
	if err != nil {
		panic(fmt.Sprintf("record: ciphertext encoding failed: %v", err))
	}
	return token
}

// Nonce returns the ciphertext's embedded group element.
func (c *Ciphertext) Nonce() *crypto.Point {
	return c.box.Ephemeral
}

// Encryptor seals records against an address.
type Encryptor struct {
	suite crypto.Suite
}

// NewEncryptor builds an encryptor over the given primitive suite, or the
// default suite when nil.
func NewEncryptor(suite crypto.Suite) *Encryptor {
	if suite == nil {
		suite = crypto.Default()
	}
	return &Encryptor{suite: suite}
}

// Encrypt seals the record against its owner address and returns the
// canonical ciphertext token.
func (e *Encryptor) Encrypt(rec *Record, rng io.Reader) (string, error) {
	payload, err := json.Marshal(toWire(rec))
	if err != nil {
		return "", err
	}
	box, err := e.suite.Seal(rng, rec.Owner.Point(), payload)
	if err != nil {
		return "", err
	}
	ct := Ciphertext{box: box}
	return ct.String(), nil
}

// Decryptor attempts authenticated decryption of record ciphertexts. It is
// stateless; every call stands alone.
type Decryptor struct {
	suite crypto.Suite
}

// NewDecryptor builds a decryptor over the given primitive suite, or the
// default suite when nil.
func NewDecryptor(suite crypto.Suite) *Decryptor {
	if suite == nil {
		suite = crypto.Default()
	}
	return &Decryptor{suite: suite}
}

// Decrypt decodes the ciphertext token and attempts authenticated
// decryption under the view key. It either returns the exact plaintext
// display text the encrypting party produced, or a classified failure:
// ErrInvalidCiphertext before any key material is consulted,
// ErrIncorrectViewKey after.
func (d *Decryptor) Decrypt(ciphertextToken string, view *account.ViewKey) (string, error) {
	ct, err := ParseCiphertext(ciphertextToken)
	if err != nil {
		return "", err
	}
	payload, err := d.suite.Open(view.Scalar(), ct.box)
	if err != nil {
		return "", ErrIncorrectViewKey
	}
	rec, err := fromWire(payload)
	if err != nil {
		return "", ErrIncorrectViewKey
	}
	return rec.Render(ct.box.Ephemeral), nil
}

// Encrypt seals a record with the default suite.
func Encrypt(rec *Record, rng io.Reader) (string, error) {
	return NewEncryptor(nil).Encrypt(rec, rng)
}

// Decrypt opens a ciphertext token with the default suite.
func Decrypt(ciphertextToken string, view *account.ViewKey) (string, error) {
	return NewDecryptor(nil).Decrypt(ciphertextToken, view)
}

type wireRecord struct {
	Owner string               `json:"owner"`
	Gates uint64               `json:"gates"`
	Data  map[string]wireEntry `json:"data"`
}

type wireEntry struct {
	Value  string `json:"value"`
	Public bool   `json:"public"`
}

func toWire(rec *Record) wireRecord {
	data := make(map[string]wireEntry, len(rec.Data))
	for name, entry := range rec.Data {
		data[name] = wireEntry{Value: entry.Value, Public: entry.Public}
	}
	return wireRecord{
		Owner: rec.Owner.String(),
		Gates: rec.Gates,
		Data:  data,
	}
}

func fromWire(payload []byte) (*Record, error) {
	var w wireRecord
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, err
	}
	owner, err := account.ParseAddress(w.Owner)
	if err != nil {
		return nil, err
	}
	data := make(map[string]Entry, len(w.Data))
	for name, entry := range w.Data {
		data[name] = Entry{Value: entry.Value, Public: entry.Public}
	}
	return &Record{Owner: owner, Gates: w.Gates, Data: data}, nil
}
