package store

import (
	"context"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/glosslink/glosslink/internal/errors"
	"github.com/glosslink/glosslink/internal/types"
)

// glossaryFile is the on-disk shape of a glossary definition file.
type glossaryFile struct {
	Terms     []types.TermEntry `yaml:"terms"`
	Documents map[string]string `yaml:"documents"`
}

// YAMLStore is a TermStore and DocumentResolver backed by a YAML file.
// It supports reloading in place, so a watcher can refresh definitions
// while a preview server keeps running.
type YAMLStore struct {
	mu        sync.RWMutex
	path      string
	terms     []types.TermEntry
	documents map[string]string
}

// NewYAMLStore loads the glossary file at path.
func NewYAMLStore(path string) (*YAMLStore, error) {
	s := &YAMLStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the backing file. On failure the previous contents
// are kept.
func (s *YAMLStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "glossary_read",
			"cannot read glossary file").WithContext("path", s.path)
	}

	var file glossaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, errors.ErrorTypeStore, "glossary_decode",
			"cannot decode glossary file").WithContext("path", s.path)
	}

	s.mu.Lock()
	s.terms = file.Terms
	s.documents = file.Documents
	s.mu.Unlock()

	return nil
}

// Query filters and orders the loaded entries for the locale/site.
func (s *YAMLStore) Query(_ context.Context, locale, siteID string) ([]types.TermEntry, error) {
	s.mu.RLock()
	entries := s.terms
	s.mu.RUnlock()

	return filterAndOrder(entries, locale, siteID), nil
}

// ResolvePath resolves an internal document id to its full path.
func (s *YAMLStore) ResolvePath(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, ok := s.documents[id]
	return path, ok
}

// All returns every loaded entry in file order.
func (s *YAMLStore) All() []types.TermEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.TermEntry, len(s.terms))
	copy(out, s.terms)
	return out
}

// Path returns the backing file path.
func (s *YAMLStore) Path() string {
	return s.path
}
