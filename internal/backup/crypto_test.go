package backup

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("sqlite snapshot bytes")

	ciphertext, err := Encrypt(plaintext, "correct horse battery staple")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := Decrypt(ciphertext, "correct horse battery staple")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch: %q", got)
	}
}

func TestDecryptRejectsWrongPassphrase(t *testing.T) {
	ciphertext, err := Encrypt([]byte("secret"), "passphrase-a")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := Decrypt(ciphertext, "passphrase-b"); err == nil {
		t.Error("wrong passphrase decrypted successfully")
	}
}

func TestDecryptRejectsTruncatedData(t *testing.T) {
	ciphertext, err := Encrypt([]byte("secret"), "passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	for _, n := range []int{0, 8, len(ciphertext) / 2} {
		if _, err := Decrypt(ciphertext[:n], "passphrase"); err == nil {
			t.Errorf("truncated input of %d bytes decrypted", n)
		}
	}
}

func TestEncryptUsesFreshSaltAndNonce(t *testing.T) {
	a, err := Encrypt([]byte("same input"), "passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := Encrypt([]byte("same input"), "passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same input are identical")
	}
}
