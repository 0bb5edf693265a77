// Package tracestore persists TaskTrace records and maintains a
// started_at-descending index of TaskSummary entries, both as flat JSON
// files written atomically (temp file then rename), one file per task plus
// a single shared index file.
package tracestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/planmodel"
)

// Store serializes writes to the task directory under a single mutex,
// matching the reference implementation's read-modify-write of the whole
// index on every trace persist.
type Store struct {
	mu  sync.Mutex
	dir string
}

func taskDir(dataDir string) string {
	return filepath.Join(dataDir, "sessions", "tasks")
}

func indexPath(dataDir string) string {
	return filepath.Join(taskDir(dataDir), "index.json")
}

func tracePath(dataDir, taskID string) string {
	return filepath.Join(taskDir(dataDir), taskID+".json")
}

// NewStore ensures the task directory and an empty index file exist.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{dir: dataDir}
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureStore() error {
	if err := os.MkdirAll(taskDir(s.dir), 0o755); err != nil {
		return err
	}
	path := indexPath(s.dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.WriteFile(path, []byte("[]"), 0o644)
	} else if err != nil {
		return err
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadIndex reads the full task summary index.
func (s *Store) LoadIndex() ([]planmodel.TaskSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIndexLocked()
}

func (s *Store) loadIndexLocked() ([]planmodel.TaskSummary, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(indexPath(s.dir))
	if err != nil {
		return nil, err
	}
	var entries []planmodel.TaskSummary
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperr.Internal("Invalid task index JSON: %v", err)
	}
	return entries, nil
}

func (s *Store) writeIndexLocked(entries []planmodel.TaskSummary) error {
	if err := s.ensureStore(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(indexPath(s.dir), data)
}

// PersistTrace writes trace.json atomically, then rebuilds the index: the
// old entry for this task_id (if any) is dropped, the new summary is
// appended, and the whole index is re-sorted by started_at descending.
func (s *Store) PersistTrace(trace planmodel.TaskTrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStore(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return err
	}
	if err := writeAtomic(tracePath(s.dir, trace.TaskID), data); err != nil {
		return err
	}

	entries, err := s.loadIndexLocked()
	if err != nil {
		return err
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.TaskID != trace.TaskID {
			filtered = append(filtered, e)
		}
	}
	filtered = append(filtered, trace.Summary())
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].StartedAt.After(filtered[j].StartedAt)
	})
	return s.writeIndexLocked(filtered)
}

// LoadTrace reads a single task's trace by ID, 404ing if it doesn't exist
// and 500ing if the JSON on disk is corrupt.
func (s *Store) LoadTrace(taskID string) (planmodel.TaskTrace, error) {
	path := tracePath(s.dir, taskID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return planmodel.TaskTrace{}, apperr.NotFound("Task not found: %s", taskID)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return planmodel.TaskTrace{}, apperr.Internal("Could not read task trace: %v", err)
	}
	var trace planmodel.TaskTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return planmodel.TaskTrace{}, apperr.Internal("Invalid task trace JSON: %v", err)
	}
	return trace, nil
}
