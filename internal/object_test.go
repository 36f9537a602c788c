package internal

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHashObjectDeterministic(t *testing.T) {
	a := HashObject(BlobObject, []byte("hello"))
	b := HashObject(BlobObject, []byte("hello"))
	if a != b {
		t.Errorf("same input hashed to %s and %s", a, b)
	}

	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
}

func TestHashObjectTypeDistinguishes(t *testing.T) {
	body := []byte("same bytes")
	if HashObject(BlobObject, body) == HashObject(TreeObject, body) {
		t.Error("blob and tree with identical bodies must not share a hash")
	}
}

func TestFrameUnframeRoundTrip(t *testing.T) {
	body := []byte("content with \x00 nul and\nnewlines")
	framed := FrameObject(BlobObject, body)

	typ, got, err := UnframeObject(framed)
	if err != nil {
		t.Fatalf("unframe: %v", err)
	}
	if typ != BlobObject {
		t.Errorf("type = %s, want blob", typ)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestUnframeObjectMalformed(t *testing.T) {
	malformed := [][]byte{
		[]byte("no separator at all"),
		[]byte("blob 999\x00short"),
		[]byte("wat 4\x00abcd"),
		[]byte("blob x\x00abcd"),
	}

	for _, framed := range malformed {
		if _, _, err := UnframeObject(framed); !errors.Is(err, ErrMalformedObject) {
			t.Errorf("UnframeObject(%q) = %v, want ErrMalformedObject", framed, err)
		}
	}
}

func TestNewHashValidation(t *testing.T) {
	valid := strings.Repeat("ab", 32)
	if _, err := NewHash(valid); err != nil {
		t.Errorf("NewHash(%q) returned error: %v", valid, err)
	}

	invalid := []string{
		"",
		"abc",
		strings.Repeat("g", 64),
		strings.Repeat("AB", 32),
		strings.Repeat("ab", 33),
	}
	for _, s := range invalid {
		if _, err := NewHash(s); err == nil {
			t.Errorf("NewHash(%q) accepted invalid hash", s)
		}
	}
}

func TestHashShort(t *testing.T) {
	h := HashObject(BlobObject, []byte("x"))
	if h.Short() != string(h)[:7] {
		t.Errorf("Short() = %q", h.Short())
	}
	if ZeroHash.Short() != "" {
		t.Errorf("ZeroHash.Short() = %q, want empty", ZeroHash.Short())
	}
}
