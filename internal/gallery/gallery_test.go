package gallery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "clue.jpg")
	touch(t, root, "photos/door.PNG")
	touch(t, root, "photos/deep/key.webp")
	touch(t, root, "notes.txt")
	touch(t, root, ".cache/hidden.png")
	touch(t, root, "node_modules/pkg/logo.png")

	items, err := Scan(root)
	require.NoError(t, err)

	var rel []string
	for _, it := range items {
		rel = append(rel, it.RelPath)
	}
	assert.Equal(t, []string{"clue.jpg", "photos/deep/key.webp", "photos/door.PNG"}, rel)
	assert.Equal(t, filepath.Join(root, "clue.jpg"), items[0].Path)
	assert.Equal(t, int64(1), items[0].Size)
}

func TestScanEmpty(t *testing.T) {
	items, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFilter(t *testing.T) {
	items := Items{
		{RelPath: "photos/door.png"},
		{RelPath: "clue.jpg"},
		{RelPath: "photos/deep/key.webp"},
	}

	assert.Len(t, Filter(items, ""), 3)

	got := Filter(items, "key")
	require.NotEmpty(t, got)
	assert.Equal(t, "photos/deep/key.webp", got[0].RelPath)

	assert.Empty(t, Filter(items, "zzz"))
}
