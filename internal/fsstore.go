package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	objectsDir   = "objects"
	refsDir      = "refs"
	stageDir     = "stage"
	refsLockFile = "refs.lock"

	refLockRetries = 50
	refLockBackoff = 10 * time.Millisecond

	// A refs.lock older than this belongs to a crashed writer. Honest
	// holders finish a ref swing in milliseconds.
	refLockStale = 5 * time.Second
)

// FSStore persists objects and refs on a billy filesystem: osfs in
// production, memfs in tests. Objects live at objects/<h[:2]>/<h[2:]>,
// refs at refs/<agent>/<name>, the stage tree at stage/<agent>.
type FSStore struct {
	fs billy.Filesystem

	// Serializes ref CAS within the process. Cross-process writers are
	// serialized by the refs.lock file.
	mu sync.Mutex

	lockTTL time.Duration
}

func NewFSStore(fs billy.Filesystem) (*FSStore, error) {
	for _, dir := range []string{objectsDir, refsDir, stageDir} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &FSStore{fs: fs, lockTTL: refLockStale}, nil
}

func (s *FSStore) Close() error {
	return nil
}

// Object store

func objectPath(hash Hash) string {
	h := hash.String()
	return path.Join(objectsDir, h[:2], h[2:])
}

func (s *FSStore) Put(ctx context.Context, typ ObjectType, body []byte) (Hash, error) {
	hash := HashObject(typ, body)
	p := objectPath(hash)

	// Content addressing makes Put idempotent: identical bytes already
	// live at this path, so there is nothing to write.
	if _, err := s.fs.Stat(p); err == nil {
		return hash, nil
	}

	if err := s.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return ZeroHash, fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := util.TempFile(s.fs, objectsDir, "obj-")
	if err != nil {
		return ZeroHash, fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(FrameObject(typ, body)); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return ZeroHash, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return ZeroHash, fmt.Errorf("close object: %w", err)
	}

	if err := s.fs.Rename(tmpName, p); err != nil {
		_ = s.fs.Remove(tmpName)
		// A concurrent Put of the same content may have won the rename.
		if _, statErr := s.fs.Stat(p); statErr == nil {
			return hash, nil
		}
		return ZeroHash, fmt.Errorf("store object: %w", err)
	}

	return hash, nil
}

func (s *FSStore) Get(ctx context.Context, hash Hash) (ObjectType, []byte, error) {
	f, err := s.fs.Open(objectPath(hash))
	if os.IsNotExist(err) {
		return "", nil, fmt.Errorf("%w: %s", ErrObjectNotFound, hash.Short())
	}
	if err != nil {
		return "", nil, fmt.Errorf("open object: %w", err)
	}
	defer f.Close()

	framed, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read object: %w", err)
	}

	typ, body, err := UnframeObject(framed)
	if err != nil {
		return "", nil, fmt.Errorf("object %s: %w", hash.Short(), err)
	}

	if HashObject(typ, body) != hash {
		return "", nil, fmt.Errorf("%w: object %s fails hash verification", ErrMalformedObject, hash.Short())
	}

	return typ, body, nil
}

func (s *FSStore) Has(ctx context.Context, hash Hash) (bool, error) {
	_, err := s.fs.Stat(objectPath(hash))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ref store

func refPath(agentID, name string) string {
	return path.Join(refsDir, agentID, name)
}

func (s *FSStore) readRef(p string) (Hash, error) {
	f, err := s.fs.Open(p)
	if os.IsNotExist(err) {
		return ZeroHash, ErrRefNotFound
	}
	if err != nil {
		return ZeroHash, fmt.Errorf("open ref: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ZeroHash, fmt.Errorf("read ref: %w", err)
	}

	return NewHash(strings.TrimSpace(string(data)))
}

func (s *FSStore) writeRef(p string, target Hash) error {
	if err := s.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return fmt.Errorf("create ref directory: %w", err)
	}
	return util.WriteFile(s.fs, p, []byte(target.String()+"\n"), 0644)
}

// lockRefs takes the cross-process refs lock. Contention here is not a
// CAS conflict, so callers spin briefly instead of failing. A lock left
// behind by a crashed writer is detected by age and broken.
func (s *FSStore) lockRefs() error {
	for i := 0; i < refLockRetries; i++ {
		f, err := s.fs.OpenFile(refsLockFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return f.Close()
		}
		if !os.IsExist(err) {
			return fmt.Errorf("acquire refs lock: %w", err)
		}
		if s.breakStaleLock() {
			continue
		}
		time.Sleep(refLockBackoff)
	}
	return fmt.Errorf("acquire refs lock: timed out (remove %s if no other writer is running)", refsLockFile)
}

func (s *FSStore) breakStaleLock() bool {
	info, err := s.fs.Stat(refsLockFile)
	if err != nil || time.Since(info.ModTime()) < s.lockTTL {
		return false
	}
	return s.fs.Remove(refsLockFile) == nil
}

func (s *FSStore) unlockRefs() {
	_ = s.fs.Remove(refsLockFile)
}

func (s *FSStore) CreateRef(ctx context.Context, agentID, name string, target Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lockRefs(); err != nil {
		return err
	}
	defer s.unlockRefs()

	p := refPath(agentID, name)
	if _, err := s.fs.Stat(p); err == nil {
		return fmt.Errorf("%w: %s/%s", ErrRefExists, agentID, name)
	}

	return s.writeRef(p, target)
}

func (s *FSStore) ResolveRef(ctx context.Context, agentID, name string) (Hash, error) {
	return s.readRef(refPath(agentID, name))
}

func (s *FSStore) UpdateRef(ctx context.Context, agentID, name string, target, expected Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lockRefs(); err != nil {
		return err
	}
	defer s.unlockRefs()

	p := refPath(agentID, name)
	current, err := s.readRef(p)
	if err != nil {
		return err
	}

	if current != expected {
		return fmt.Errorf("%w: %s/%s is at %s, expected %s", ErrConflict, agentID, name, current.Short(), expected.Short())
	}

	return s.writeRef(p, target)
}

func (s *FSStore) DeleteRef(ctx context.Context, agentID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lockRefs(); err != nil {
		return err
	}
	defer s.unlockRefs()

	p := refPath(agentID, name)
	if _, err := s.fs.Stat(p); os.IsNotExist(err) {
		return ErrRefNotFound
	}
	return s.fs.Remove(p)
}

func (s *FSStore) ListRefs(ctx context.Context, agentID string) ([]Ref, error) {
	dir := path.Join(refsDir, agentID)
	entries, err := s.fs.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}

	var refs []Ref
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		target, err := s.readRef(path.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		refs = append(refs, Ref{AgentID: agentID, Name: entry.Name(), Target: target})
	}
	return refs, nil
}

// Stage store

func stagePath(agentID string) string {
	return path.Join(stageDir, agentID)
}

func (s *FSStore) ReadStage(ctx context.Context, agentID string) (Hash, error) {
	hash, err := s.readRef(stagePath(agentID))
	if err == ErrRefNotFound {
		return ZeroHash, ErrNothingStaged
	}
	return hash, err
}

func (s *FSStore) WriteStage(ctx context.Context, agentID string, tree Hash) error {
	return s.writeRef(stagePath(agentID), tree)
}

func (s *FSStore) ClearStage(ctx context.Context, agentID string) error {
	err := s.fs.Remove(stagePath(agentID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
