package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	fcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/roomchat/internal/levels"
	"github.com/joss/roomchat/internal/session"
	"github.com/joss/roomchat/internal/timeline"
)

func init() {
	fcolor.NoColor = true
}

func snapshot() timeline.Snapshot {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return timeline.Snapshot{
		Messages: []timeline.Message{
			{ID: "a", Role: timeline.RoleAssistant, Content: "Welcome", CreatedAt: at},
			{ID: "u", Role: timeline.RoleUser, Content: "Sent an image", CreatedAt: at,
				Image: &timeline.Image{URL: "blob:roomchat/x", Name: "key.jpg", MediaType: "image/jpeg"}},
			{ID: "e", Role: timeline.RoleAssistant, Content: "upload failed", Error: true, CreatedAt: at},
		},
		States: map[string]timeline.State{"u": timeline.StateFailed},
	}
}

func TestTranscriptPlain(t *testing.T) {
	out := New(false).Transcript(snapshot())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[09:30:00] assistant: Welcome", lines[0])
	assert.Equal(t, "[09:30:00] user failed: Sent an image", lines[1])
	assert.Equal(t, "    image: key.jpg (image/jpeg)", lines[2])
	assert.Equal(t, "[09:30:00] assistant error: upload failed", lines[3])
}

func TestTranscriptEmpty(t *testing.T) {
	assert.Equal(t, "No messages yet", New(false).Transcript(timeline.Snapshot{}))
}

func TestTranscriptPretty(t *testing.T) {
	r := New(true)
	r.md = NewPlainMarkdown(40)
	s := snapshot()
	s.Pending = true

	out := r.Transcript(s)
	assert.Contains(t, out, "game master:")
	assert.Contains(t, out, "Welcome")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "key.jpg")
	assert.Contains(t, out, "waiting for the game master")
}

func TestSession(t *testing.T) {
	info := session.Info{ID: "s1", Status: "intro", ConfigPath: "config/police.yaml", Items: []string{"badge"}}
	assert.Equal(t, "session=s1 status=\"intro\" config=config/police.yaml items=1\n", New(false).Session(info))

	out := New(true).Session(info)
	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "badge")
}

func TestItems(t *testing.T) {
	assert.Equal(t, "No items available", New(false).Items(nil))
	assert.Equal(t, "badge\nmap\n", New(false).Items([]string{"badge", "map"}))
	assert.Contains(t, New(true).Items([]string{"badge"}), "◆ badge")
}

func TestLevels(t *testing.T) {
	out := New(false).Levels(levels.Builtin())
	assert.Contains(t, out, "police\tconfig/police.yaml\t")
	assert.Contains(t, out, "taoist\tconfig/taoist.yaml\t")

	pretty := New(true).Levels(levels.Builtin())
	assert.Contains(t, pretty, "Medium")
	assert.Equal(t, "No levels configured", New(true).Levels(nil))
}

func TestMarkdownNilAndPlain(t *testing.T) {
	var m *Markdown
	assert.Equal(t, "**bold**", m.Render("**bold**"))
	m.SetWidth(10)

	out := NewPlainMarkdown(40).Render("# Clue\n\nThe **door** is locked.")
	assert.Contains(t, out, "Clue")
	assert.Contains(t, out, "door")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := Thumbnail(buf.Bytes(), 20, 10)
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 5)
	for _, l := range lines {
		assert.Equal(t, 20, strings.Count(l, "▀"))
	}

	small, err := Thumbnail(buf.Bytes(), 100, 100)
	require.NoError(t, err)
	assert.Len(t, strings.Split(small, "\n"), 10)

	_, err = Thumbnail([]byte("not an image"), 10, 10)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "日本...", Truncate("日本語のテキスト", 5))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
}
