package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r := Default()
	cats := r.All()
	require.NotEmpty(t, cats)
	assert.Equal(t, All, cats[0].ID)
	assert.True(t, r.Exists("GAMES"))
	assert.True(t, r.Assignable("Games"))
	assert.False(t, r.Assignable(All))
	assert.False(t, r.Assignable(Mature))
	assert.False(t, r.Assignable("spaceships"))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categories":[{"id":"tools","name":"Tools"}]}`), 0o600))

	r, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, r.Assignable("tools"))
	assert.True(t, r.Exists(All))
	assert.True(t, r.Exists(Mature))
	assert.Len(t, r.All(), 3)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categories":[]}`), 0o600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)

	r, err := LoadFromFile("")
	require.NoError(t, err)
	assert.True(t, r.Exists("games"))
}
