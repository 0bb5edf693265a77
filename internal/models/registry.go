// Package models persists the registered-model catalog: which model IDs
// are known, where their local weights live, and which one is the default.
// Downloading is stubbed per this system's scope; registering a model never
// fetches anything.
package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

// Path returns the on-disk location of the model registry under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "models", "registry.json")
}

// Store holds the live ModelsState, guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	path    string
	current planmodel.ModelsState
}

// NewStore loads the registry from dataDir, creating an empty one if it
// doesn't exist yet.
func NewStore(dataDir string) (*Store, error) {
	path := Path(dataDir)
	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := s.persist(planmodel.ModelsState{InstalledModels: []planmodel.ModelEntry{}}); err != nil {
			return nil, err
		}
		return s, nil
	} else if err != nil {
		return nil, err
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var st planmodel.ModelsState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = st
	s.mu.Unlock()
	return nil
}

func (s *Store) persist(st planmodel.ModelsState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = st
	s.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the registry.
func (s *Store) Snapshot() planmodel.ModelsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]planmodel.ModelEntry, len(s.current.InstalledModels))
	copy(entries, s.current.InstalledModels)
	return planmodel.ModelsState{InstalledModels: entries, DefaultModelID: s.current.DefaultModelID}
}

// Register adds or replaces a model entry. If localPath is non-empty and
// exists on disk, the entry is marked "registered"; otherwise it's marked
// "download_stubbed" with no local path, since downloading is out of scope.
// The first registered model becomes the default if none is set yet.
func (s *Store) Register(modelID, displayName, localPath string) (planmodel.ModelEntry, error) {
	entry := planmodel.ModelEntry{ModelID: modelID, DisplayName: displayName}
	if localPath != "" {
		if _, err := os.Stat(localPath); err == nil {
			entry.LocalPath = localPath
			entry.Status = "registered"
		} else {
			entry.Status = "download_stubbed"
		}
	} else {
		entry.Status = "download_stubbed"
	}

	snap := s.Snapshot()
	replaced := false
	for i, e := range snap.InstalledModels {
		if e.ModelID == modelID {
			snap.InstalledModels[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		snap.InstalledModels = append(snap.InstalledModels, entry)
	}
	if snap.DefaultModelID == "" {
		snap.DefaultModelID = modelID
	}
	if err := s.persist(snap); err != nil {
		return planmodel.ModelEntry{}, err
	}
	return entry, nil
}

// SetDefault marks modelID as the default, returning false if it isn't
// installed.
func (s *Store) SetDefault(modelID string) (bool, error) {
	snap := s.Snapshot()
	found := false
	for _, e := range snap.InstalledModels {
		if e.ModelID == modelID {
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	snap.DefaultModelID = modelID
	return true, s.persist(snap)
}

// Default returns the default model entry, if one is set and installed.
func (s *Store) Default() (planmodel.ModelEntry, bool) {
	snap := s.Snapshot()
	if snap.DefaultModelID == "" {
		return planmodel.ModelEntry{}, false
	}
	for _, e := range snap.InstalledModels {
		if e.ModelID == snap.DefaultModelID {
			return e, true
		}
	}
	return planmodel.ModelEntry{}, false
}
