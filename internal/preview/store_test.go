package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/roomchat/internal/media"
)

func TestCreateOpenRevoke(t *testing.T) {
	s := NewStore()
	f := media.File{Name: "a.png", MediaType: "image/png", Data: []byte{1, 2, 3}}

	url := s.Create(f)
	assert.Regexp(t, "^"+Scheme+"[0-9A-Z]{26}$", url)
	assert.Equal(t, 1, s.Len())

	got, err := s.Open(url)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	assert.True(t, s.Revoke(url))
	assert.False(t, s.Revoke(url))

	_, err = s.Open(url)
	assert.ErrorIs(t, err, ErrRevoked)
	assert.Equal(t, 0, s.Len())
}

func TestURLsAreUnique(t *testing.T) {
	s := NewStore()
	f := media.File{Name: "same.jpg"}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		url := s.Create(f)
		assert.False(t, seen[url], "duplicate url %s", url)
		seen[url] = true
	}
	assert.Equal(t, 100, s.Len())
}

func TestRevokeAll(t *testing.T) {
	s := NewStore()
	s.Create(media.File{Name: "a"})
	s.Create(media.File{Name: "b"})

	assert.Equal(t, 2, s.RevokeAll())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.RevokeAll())
}
