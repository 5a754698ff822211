package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "session_1700000000123", NewID(now, ""))
	assert.Equal(t, "session_1700000000123_taoist", NewID(now, "taoist"))
}

func TestParseID(t *testing.T) {
	ts, level, err := ParseID("session_1700000000123_taoist")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), ts.UnixMilli())
	assert.Equal(t, "taoist", level)

	_, level, err = ParseID("session_42")
	require.NoError(t, err)
	assert.Empty(t, level)

	_, _, err = ParseID("abc")
	assert.Error(t, err)
	_, _, err = ParseID("session_x_police")
	assert.Error(t, err)
}
