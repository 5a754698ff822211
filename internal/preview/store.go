// Package preview keeps locally-addressable image previews.
//
// Each preview gets a unique blob: URL that stays valid until it is revoked.
// Owners revoke URLs when the turn holding them is evicted or the session is
// torn down.
package preview

import (
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/joss/roomchat/internal/media"
)

// Scheme prefixes every preview URL.
const Scheme = "blob:roomchat/"

// ErrRevoked is returned when opening a URL that was released or never existed.
var ErrRevoked = errors.New("preview url revoked")

// Store maps preview URLs to image bytes.
type Store struct {
	mu    sync.RWMutex
	files map[string]media.File
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{files: make(map[string]media.File)}
}

// Create registers file and returns its URL.
func (s *Store) Create(file media.File) string {
	url := Scheme + ulid.Make().String()

	s.mu.Lock()
	s.files[url] = file
	s.mu.Unlock()
	return url
}

// Open returns the file behind url.
func (s *Store) Open(url string) (media.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[url]
	if !ok {
		return media.File{}, ErrRevoked
	}
	return f, nil
}

// Revoke releases url. Revoking twice is a no-op and reports false.
func (s *Store) Revoke(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[url]; !ok {
		return false
	}
	delete(s.files, url)
	return true
}

// RevokeAll releases every URL and returns how many were live.
func (s *Store) RevokeAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.files)
	s.files = make(map[string]media.File)
	return n
}

// Len returns the number of live URLs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
