package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(string(hash), "$argon2id$v=19$") {
		t.Fatalf("unexpected hash encoding: %s", hash)
	}
	if strings.Contains(string(hash), "s3cret-password") {
		t.Fatalf("hash must not contain the plaintext password")
	}

	ok, err := VerifyPassword("s3cret-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if !ok {
		t.Fatalf("correct password did not verify")
	}

	ok, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if ok {
		t.Fatalf("wrong password verified")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	second, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if string(first) == string(second) {
		t.Fatalf("expected distinct hashes for distinct salts")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	if _, err := VerifyPassword("anything", []byte("not-an-encoded-hash")); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}
