package levels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()

	police, ok := c.Find("police")
	require.True(t, ok)
	assert.Equal(t, "config/police.yaml", police.ConfigPath)

	taoist, ok := c.Find("taoist")
	require.True(t, ok)
	assert.Equal(t, "config/taoist.yaml", taoist.ConfigPath)

	_, ok = c.Find("missing")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	data := []byte(`
levels:
  - id: museum
    title: Night at the Museum
    config_path: config/museum.yaml
    difficulty: Hard
`)
	c, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, c.Levels, 1)
	assert.Equal(t, "museum", c.Levels[0].ID)
	assert.Equal(t, "Hard", c.Levels[0].Difficulty)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "levels: []"},
		{"missing config", "levels:\n  - id: x\n"},
		{"duplicate", "levels:\n  - {id: a, config_path: a.yaml}\n  - {id: a, config_path: b.yaml}\n"},
		{"invalid yaml", "levels: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Levels, 2)

	path := filepath.Join(t.TempDir(), "levels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("levels:\n  - {id: a, config_path: a.yaml}\n"), 0644))

	c, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Levels, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
