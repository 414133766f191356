package valueobject

import (
	"bytes"
	"strings"
	"testing"
)

// sha256("hello")
const helloHash = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestComputeContentHash_KnownDigest(t *testing.T) {
	h := ComputeContentHash([]byte("hello"))

	if h.Value() != helloHash {
		t.Errorf("got %q, want %q", h.Value(), helloHash)
	}
}

func TestComputeContentHash_SameBytesSameHash(t *testing.T) {
	a := ComputeContentHash([]byte("payload"))
	b := ComputeContentHash([]byte("payload"))

	if !a.Equals(b) {
		t.Errorf("expected equal hashes, got %q and %q", a, b)
	}
}

func TestComputeContentHashFromReader_MatchesBufferDigest(t *testing.T) {
	h, n, err := ComputeContentHashFromReader(bytes.NewReader([]byte("hello")))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Errorf("got size %d, want 5", n)
	}
	if h.Value() != helloHash {
		t.Errorf("got %q, want %q", h.Value(), helloHash)
	}
}

func TestNewContentHash_UppercaseInput_Normalizes(t *testing.T) {
	h, err := NewContentHash(strings.ToUpper(helloHash))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Value() != helloHash {
		t.Errorf("got %q, want %q", h.Value(), helloHash)
	}
}

func TestNewContentHash_InvalidInput_ReturnsErrInvalidContentHash(t *testing.T) {
	inputs := []string{
		"",
		"abc",
		strings.Repeat("z", ContentHashLength),
		helloHash + "00",
	}

	for _, in := range inputs {
		if _, err := NewContentHash(in); err != ErrInvalidContentHash {
			t.Errorf("NewContentHash(%q): expected ErrInvalidContentHash, got: %v", in, err)
		}
	}
}

func TestNewStorageKey_WithPrefix(t *testing.T) {
	h := ReconstructContentHash(helloHash)

	if got := NewStorageKey("", h).Value(); got != helloHash {
		t.Errorf("got %q, want %q", got, helloHash)
	}
	if got := NewStorageKey("/objects/", h).Value(); got != "objects/"+helloHash {
		t.Errorf("got %q, want %q", got, "objects/"+helloHash)
	}
}
