// Package spool keeps selected videos on local disk between selection and
// submission. A Ref is the server-side equivalent of a browser object URL: it
// must be released on every exit path or the file stays behind.
package spool

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("spool: reference not found")
	ErrTooLarge = errors.New("spool: file exceeds limit")
)

type Ref struct {
	ID          string
	Name        string
	ContentType string
	Size        int64

	path string
}

// SizeMB is the size in megabytes (base 1024), as shown on the review panel.
func (r *Ref) SizeMB() float64 {
	return float64(r.Size) / (1024 * 1024)
}

type Spool struct {
	dir string

	mu   sync.Mutex
	refs map[string]*Ref
}

// New creates a spool rooted in a fresh directory under parent. An empty parent
// uses the OS temp dir.
func New(parent string) (*Spool, error) {
	dir, err := os.MkdirTemp(parent, "testimonial-spool-")
	if err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{dir: dir, refs: make(map[string]*Ref)}, nil
}

// Put copies r to disk. If more than limit bytes are available the partial file
// is removed and ErrTooLarge is returned. A limit <= 0 disables the check.
func (s *Spool) Put(name, contentType string, r io.Reader, limit int64) (*Ref, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, id)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write spool file: %w", err)
	}
	if limit > 0 && n > limit {
		_ = os.Remove(path)
		return nil, ErrTooLarge
	}

	ref := &Ref{ID: id, Name: filepath.Base(name), ContentType: contentType, Size: n, path: path}

	s.mu.Lock()
	s.refs[id] = ref
	s.mu.Unlock()

	return ref, nil
}

// Open returns a reader over a live reference. The caller closes the file.
func (s *Spool) Open(id string) (*os.File, *Ref, error) {
	s.mu.Lock()
	ref, ok := s.refs[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(ref.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open spool file: %w", err)
	}
	return f, ref, nil
}

// Release deletes the file behind ref. Releasing nil or an already released
// reference does nothing.
func (s *Spool) Release(ref *Ref) {
	if ref == nil {
		return
	}

	s.mu.Lock()
	_, ok := s.refs[ref.ID]
	delete(s.refs, ref.ID)
	s.mu.Unlock()

	if ok {
		_ = os.Remove(ref.path)
	}
}

// Len reports how many references are live.
func (s *Spool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// Close releases every reference and removes the spool directory.
func (s *Spool) Close() error {
	s.mu.Lock()
	s.refs = make(map[string]*Ref)
	s.mu.Unlock()
	return os.RemoveAll(s.dir)
}
