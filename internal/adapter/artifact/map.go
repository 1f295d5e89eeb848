package artifact

import (
	"fmt"
	"os"
	"sync"
)

// MapStore holds the pre-rendered map HTML. The file is read on first use and
// returned unmodified afterwards. A failed read is retried on the next call.
type MapStore struct {
	path string

	mu   sync.Mutex
	html []byte
}

// NewMapStore creates a store for the HTML file at path.
func NewMapStore(path string) *MapStore {
	return &MapStore{path: path}
}

// HTML returns the map document.
func (s *MapStore) HTML() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.html != nil {
		return s.html, nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read map html: %w", err)
	}
	s.html = b
	return s.html, nil
}
