// Package file persists client state in a YAML file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

// document is the on-disk layout. Profiles let one file serve several
// servers.
type document struct {
	Profiles map[string]domain.ClientState `yaml:"profiles"`
}

// Store reads and writes one profile of a state file.
type Store struct {
	mu      sync.Mutex
	path    string
	profile string
}

func NewStore(path, profile string) *Store {
	if profile == "" {
		profile = "default"
	}
	return &Store{path: path, profile: profile}
}

// Load returns the stored state. A missing file is an empty state.
func (s *Store) Load(_ context.Context) (domain.ClientState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return domain.ClientState{}, err
	}
	return doc.Profiles[s.profile], nil
}

// Save replaces this profile's state, leaving other profiles untouched.
// The file is written to a temporary sibling and renamed into place.
func (s *Store) Save(_ context.Context, st domain.ClientState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if st == (domain.ClientState{}) {
		delete(doc.Profiles, s.profile)
	} else {
		doc.Profiles[s.profile] = st
	}
	return s.write(doc)
}

// Clear removes this profile from the file.
func (s *Store) Clear(ctx context.Context) error {
	return s.Save(ctx, domain.ClientState{})
}

func (s *Store) read() (document, error) {
	doc := document{Profiles: map[string]domain.ClientState{}}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse state file: %w", err)
	}
	if doc.Profiles == nil {
		doc.Profiles = map[string]domain.ClientState{}
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".marksync-state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	// The credential lives here.
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("failed to chmod state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
