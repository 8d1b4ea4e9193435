package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeKeypairFile(t *testing.T, priv ed25519.PrivateKey) string {
	t.Helper()
	ints := make([]int, len(priv))
	for i, b := range priv {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		t.Fatalf("marshal keypair: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write keypair: %v", err)
	}
	return path
}

func TestLoadKeypair_RoundTrip(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 7
	}
	priv := ed25519.NewKeyFromSeed(seed)
	path := writeKeypairFile(t, priv)

	got, pub, err := LoadKeypair(path)
	if err != nil {
		t.Fatalf("LoadKeypair: %v", err)
	}
	if string(got) != string(priv) {
		t.Fatalf("private key mismatch")
	}
	wantPub := priv.Public().(ed25519.PublicKey)
	if string(pub[:]) != string(wantPub) {
		t.Fatalf("public key mismatch")
	}

	signer, err := LoadKeypairSigner(path)
	if err != nil {
		t.Fatalf("LoadKeypairSigner: %v", err)
	}
	if signer.Pubkey() != pub {
		t.Fatalf("signer pubkey mismatch")
	}
	sig, err := signer.Sign([]byte("msg"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !ed25519.Verify(wantPub, []byte("msg"), sig[:]) {
		t.Fatalf("signature did not verify")
	}
}

func TestLoadKeypair_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"not":"an array"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadKeypair(bad); err != ErrInvalidKeypairFile {
		t.Fatalf("want ErrInvalidKeypairFile, got %v", err)
	}

	short := filepath.Join(dir, "short.json")
	if err := os.WriteFile(short, []byte(`[1,2,3]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadKeypair(short); err != ErrInvalidKeypairFile {
		t.Fatalf("want ErrInvalidKeypairFile, got %v", err)
	}

	if _, _, err := LoadKeypair(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
