package security

import (
	"strings"
	"testing"
)

func fastArgon() *Argon2Hasher {
	return NewArgon2Hasher(Argon2Params{Memory: 1024, Time: 1, Threads: 1})
}

func TestArgon2Hasher_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := fastArgon()
	hash, err := h.Hash("abcdef1")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding: %q", hash)
	}
	if strings.Contains(hash, "abcdef1") {
		t.Fatalf("hash leaks plaintext")
	}
	if err := h.Compare(hash, "abcdef1"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := h.Compare(hash, "abcdef2"); err != ErrMismatchedPassword {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestArgon2Hasher_SaltedPerHash(t *testing.T) {
	t.Parallel()

	h := fastArgon()
	a, _ := h.Hash("abcdef1")
	b, _ := h.Hash("abcdef1")
	if a == b {
		t.Fatalf("two hashes of the same secret must differ")
	}
}

func TestArgon2Hasher_CompareUsesStoredParams(t *testing.T) {
	t.Parallel()

	hash, err := fastArgon().Hash("abcdef1")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	// a hasher configured differently still verifies older hashes
	if err := NewArgon2Hasher(Argon2Params{}).Compare(hash, "abcdef1"); err != nil {
		t.Fatalf("compare with default params: %v", err)
	}
}

func TestArgon2Hasher_MalformedHash(t *testing.T) {
	t.Parallel()

	h := fastArgon()
	cases := []string{
		"",
		"$argon2id$",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
	}
	for _, c := range cases {
		if err := h.Compare(c, "abcdef1"); err != ErrMalformedHash {
			t.Fatalf("%q: expected ErrMalformedHash, got %v", c, err)
		}
	}
}
