package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDir_WalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "migrations"), 0o755))
	nested := filepath.Join(root, "internal", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	t.Chdir(nested)

	got := FindDir()
	want, err := filepath.EvalSymlinks(filepath.Join(root, "migrations"))
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestFindDir_RepositoryMigrations(t *testing.T) {
	dir := FindDir()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var ups int
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups++
		}
	}
	assert.Positive(t, ups)
}
