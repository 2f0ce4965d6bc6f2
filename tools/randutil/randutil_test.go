package randutil

import (
	"strings"
	"testing"
)

func TestGenerateRandomString(t *testing.T) {
	s := GenerateRandomString(16)
	if len(s) != 16 {
		t.Fatalf("expected 16 chars, got %d", len(s))
	}
	for _, r := range s {
		if !strings.ContainsRune(letters, r) {
			t.Fatalf("unexpected rune %q in %q", r, s)
		}
	}
	if GenerateRandomString(16) == s {
		t.Fatal("two random strings should differ")
	}
}

func TestBytes(t *testing.T) {
	b, err := Bytes(16)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(b))
	}
}
