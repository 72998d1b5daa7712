package keystore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/twiterfame/sdk/internal/account"
	"github.com/twiterfame/sdk/internal/testutil/entropy"
)

func testKey(t *testing.T) *account.SecretKey {
	t.Helper()
	key, err := account.GenerateFromRand(entropy.Reader("keystore"))
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "account.key")
	key := testKey(t)

	if err := Save(path, "hunter2 but longer", key); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path, "hunter2 but longer")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !key.Equal(got) {
		t.Fatal("loaded key differs from saved key")
	}
}

func TestLoadRejectsWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.key")
	if err := Save(path, "correct passphrase", testKey(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := Load(path, "wrong passphrase"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestLoadRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.key")
	if err := os.WriteFile(path, []byte("not a keystore"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Load(path, "whatever"); !errors.Is(err, ErrInvalidKeystore) {
		t.Fatalf("expected ErrInvalidKeystore, got %v", err)
	}
}

func TestLoadRejectsCorruptedEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.key")
	if err := os.WriteFile(path, []byte(filePrefix+"{broken"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Load(path, "whatever"); !errors.Is(err, ErrInvalidKeystore) {
		t.Fatalf("expected ErrInvalidKeystore, got %v", err)
	}
}

func TestLoadRejectsHostileKDFParams(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "account.key")
	if err := Save(base, "some passphrase", testKey(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	raw, err := os.ReadFile(base)
	if err != nil {
		t.Fatalf("read keystore: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw[len(filePrefix):], &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	cases := map[string]func(e *envelope){
		"zero time":    func(e *envelope) { e.KDFTime = 0 },
		"zero threads": func(e *envelope) { e.KDFThreads = 0 },
		"huge memory":  func(e *envelope) { e.KDFMemoryKB = 1 << 30 },
		"tiny memory":  func(e *envelope) { e.KDFMemoryKB = 1 },
		"excess time":  func(e *envelope) { e.KDFTime = 10_000 },
		"short salt":   func(e *envelope) { e.Salt = e.Salt[:4] },
		"short nonce":  func(e *envelope) { e.Nonce = e.Nonce[:4] },
	}
	for name, mutate := range cases {
		hostile := env
		mutate(&hostile)
		out, err := json.Marshal(&hostile)
		if err != nil {
			t.Fatalf("%s: marshal: %v", name, err)
		}
		path := filepath.Join(dir, "hostile.key")
		if err := os.WriteFile(path, append([]byte(filePrefix), out...), 0o600); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		if _, err := Load(path, "some passphrase"); !errors.Is(err, ErrInvalidKeystore) {
			t.Fatalf("%s: expected ErrInvalidKeystore, got %v", name, err)
		}
	}
}

func TestPassphraseRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.key")
	if err := Save(path, "   ", testKey(t)); !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("expected ErrPassphraseRequired on save, got %v", err)
	}
	if _, err := Load(path, ""); !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("expected ErrPassphraseRequired on load, got %v", err)
	}
}

func TestChangePassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.key")
	key := testKey(t)
	if err := Save(path, "old passphrase", key); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := ChangePassphrase(path, "old passphrase", "new passphrase"); err != nil {
		t.Fatalf("change failed: %v", err)
	}
	if _, err := Load(path, "old passphrase"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("old passphrase should no longer open the keystore, got %v", err)
	}
	got, err := Load(path, "new passphrase")
	if err != nil {
		t.Fatalf("load with new passphrase failed: %v", err)
	}
	if !key.Equal(got) {
		t.Fatal("key changed across passphrase rotation")
	}
}

func TestChangePassphraseRejectsWrongOld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.key")
	if err := Save(path, "old passphrase", testKey(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := ChangePassphrase(path, "bogus", "new passphrase"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestKeystoreFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.key")
	if err := Save(path, "some passphrase", testKey(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("keystore permissions too open: %o", perm)
	}
}
