package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepOrCreate(t *testing.T) {
	dir := t.TempDir()

	fresh := filepath.Join(dir, "fresh.sqlite")
	kept, err := KeepOrCreate(fresh)
	require.NoError(t, err)
	assert.False(t, kept)
	assert.FileExists(t, fresh)

	live := filepath.Join(dir, "live.sqlite")
	require.NoError(t, os.WriteFile(live, []byte("rows"), 0644))
	kept, err = KeepOrCreate(live)
	require.NoError(t, err)
	assert.True(t, kept)
	got, err := os.ReadFile(live)
	require.NoError(t, err)
	assert.Equal(t, "rows", string(got))
}

func TestRemoveSidecars(t *testing.T) {
	db := filepath.Join(t.TempDir(), "app.sqlite")
	require.NoError(t, os.WriteFile(db+"-wal", nil, 0644))

	// -shm が無くてもエラーにしない
	require.NoError(t, RemoveSidecars(db))
	assert.NoFileExists(t, db+"-wal")
	assert.NoFileExists(t, db+"-shm")
}
