package internal

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// ObjectType discriminates the three kinds of immutable objects in the
// store. The type participates in the hash, so a blob and a tree with
// identical bytes still get distinct identities.
type ObjectType string

const (
	BlobObject   ObjectType = "blob"
	TreeObject   ObjectType = "tree"
	CommitObject ObjectType = "commit"
)

func (t ObjectType) Valid() bool {
	switch t {
	case BlobObject, TreeObject, CommitObject:
		return true
	}
	return false
}

// Hash is the hex-encoded SHA-256 of an object's framed serialization.
type Hash string

const ZeroHash Hash = ""

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func NewHash(s string) (Hash, error) {
	if !hashPattern.MatchString(s) {
		return ZeroHash, fmt.Errorf("%w: bad hash %q", ErrMalformedObject, s)
	}
	return Hash(s), nil
}

func (h Hash) String() string {
	return string(h)
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Short returns the abbreviated form used in CLI output.
func (h Hash) Short() string {
	if len(h) < 7 {
		return string(h)
	}
	return string(h)[:7]
}

// FrameObject prepends the "<type> <len>\x00" header. Hashing always
// runs over the framed form so identity covers the object type.
func FrameObject(typ ObjectType, body []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", typ, len(body))
	framed := make([]byte, 0, len(header)+len(body))
	framed = append(framed, header...)
	framed = append(framed, body...)
	return framed
}

// UnframeObject splits a framed serialization back into type and body.
func UnframeObject(framed []byte) (ObjectType, []byte, error) {
	nul := bytes.IndexByte(framed, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("%w: missing header terminator", ErrMalformedObject)
	}

	var typ ObjectType
	var size int
	if _, err := fmt.Sscanf(string(framed[:nul]), "%s %d", &typ, &size); err != nil {
		return "", nil, fmt.Errorf("%w: bad header: %v", ErrMalformedObject, err)
	}
	if !typ.Valid() {
		return "", nil, fmt.Errorf("%w: unknown object type %q", ErrMalformedObject, typ)
	}

	body := framed[nul+1:]
	if len(body) != size {
		return "", nil, fmt.Errorf("%w: size mismatch: header says %d, body is %d", ErrMalformedObject, size, len(body))
	}

	return typ, body, nil
}

// HashObject computes the content address of a framed object.
func HashObject(typ ObjectType, body []byte) Hash {
	sum := sha256.Sum256(FrameObject(typ, body))
	return Hash(hex.EncodeToString(sum[:]))
}
