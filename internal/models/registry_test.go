package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterSetsDefaultStubbedWithoutLocalPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	entry, err := s.Register("tinyllama", "TinyLlama", "")
	require.NoError(t, err)
	require.Equal(t, "download_stubbed", entry.Status)

	snap := s.Snapshot()
	require.Equal(t, "tinyllama", snap.DefaultModelID)
}

func TestRegisterWithExistingLocalPathIsRegistered(t *testing.T) {
	dir := t.TempDir()
	weights := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(weights, []byte("x"), 0o644))

	s, err := NewStore(dir)
	require.NoError(t, err)

	entry, err := s.Register("m1", "Model One", weights)
	require.NoError(t, err)
	require.Equal(t, "registered", entry.Status)
	require.Equal(t, weights, entry.LocalPath)
}

func TestRegisterReplacesExistingEntry(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	_, err = s.Register("m1", "First", "")
	require.NoError(t, err)
	_, err = s.Register("m1", "Second", "")
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.InstalledModels, 1)
	require.Equal(t, "Second", snap.InstalledModels[0].DisplayName)
}

func TestSetDefaultRequiresInstalled(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	ok, err := s.SetDefault("missing")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.Register("m1", "M1", "")
	require.NoError(t, err)
	ok, err = s.SetDefault("m1")
	require.NoError(t, err)
	require.True(t, ok)
}
