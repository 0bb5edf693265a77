package tracestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

func TestPersistAndLoadTrace(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	trace := planmodel.TaskTrace{
		TaskID:    "t1",
		PlanID:    "p1",
		Agent:     "file",
		Status:    "running",
		StartedAt: planmodel.NewTimestamp(time.Now()),
	}
	require.NoError(t, s.PersistTrace(trace))

	loaded, err := s.LoadTrace("t1")
	require.NoError(t, err)
	require.Equal(t, "running", loaded.Status)
}

func TestLoadTraceNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	_, err = s.LoadTrace("missing")
	require.Error(t, err)
}

func TestIndexSortedDescendingByStartedAt(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	older := planmodel.NewTimestamp(time.Now().Add(-time.Hour))
	newer := planmodel.NewTimestamp(time.Now())

	require.NoError(t, s.PersistTrace(planmodel.TaskTrace{TaskID: "old", StartedAt: older}))
	require.NoError(t, s.PersistTrace(planmodel.TaskTrace{TaskID: "new", StartedAt: newer}))

	entries, err := s.LoadIndex()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "new", entries[0].TaskID)
	require.Equal(t, "old", entries[1].TaskID)
}

func TestPersistTraceReplacesExistingEntry(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.PersistTrace(planmodel.TaskTrace{TaskID: "t1", Status: "running", StartedAt: planmodel.NewTimestamp(time.Now())}))
	require.NoError(t, s.PersistTrace(planmodel.TaskTrace{TaskID: "t1", Status: "completed", StartedAt: planmodel.NewTimestamp(time.Now())}))

	entries, err := s.LoadIndex()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "completed", entries[0].Status)
}
