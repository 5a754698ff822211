package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NewID builds a client-side session id: session_<unix-ms> or
// session_<unix-ms>_<levelID>.
func NewID(now time.Time, levelID string) string {
	id := "session_" + strconv.FormatInt(now.UnixMilli(), 10)
	if levelID != "" {
		id += "_" + levelID
	}
	return id
}

// ParseID splits an id produced by NewID into its timestamp and level.
func ParseID(id string) (time.Time, string, error) {
	rest, ok := strings.CutPrefix(id, "session_")
	if !ok {
		return time.Time{}, "", fmt.Errorf("session id %q: missing session_ prefix", id)
	}
	ts, level, _ := strings.Cut(rest, "_")
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("session id %q: bad timestamp: %w", id, err)
	}
	return time.UnixMilli(ms), level, nil
}
