// Package record implements confidential records: an owner-addressed
// structured payload sealed against an account address, decryptable only
// with the matching view key.
package record

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/twiterfame/sdk/internal/account"
	"github.com/twiterfame/sdk/internal/crypto"
)

// Record is the decrypted structured payload of a confidential record.
type Record struct {
	Owner *account.Address
	Gates uint64
	Data  map[string]Entry
}

// Entry is a named, type-tagged literal inside a record's data section,
// such as "42u64" or "true". Public entries are rendered with a .public
// visibility suffix, everything else is .private.
type Entry struct {
	Value  string
	Public bool
}

// Render produces the canonical display text of the record. The nonce is
// the ciphertext's embedded group element; it is part of the display form
// because the record is only ever shown after an encrypt or decrypt, both
// of which know it.
func (r *Record) Render(nonce *crypto.Point) string {
	var b strings.Builder
	b.WriteString("{owner: ")
	b.WriteString(r.Owner.String())
	b.WriteString(".private, gates: ")
	b.WriteString(strconv.FormatUint(r.Gates, 10))
	b.WriteString("u64.private, data: {")
	for i, name := range sortedNames(r.Data) {
		if i > 0 {
			b.WriteString(", ")
		}
		entry := r.Data[name]
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(entry.Value)
		if entry.Public {
			b.WriteString(".public")
		} else {
			b.WriteString(".private")
		}
	}
	b.WriteString("}, _nonce: ")
	b.WriteString(new(big.Int).SetBytes(nonce.Bytes()).String())
	b.WriteString("group.public}")
	return b.String()
}

func sortedNames(data map[string]Entry) []string {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
