package tui

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/roomchat/internal/camera"
	"github.com/joss/roomchat/internal/gateway"
	"github.com/joss/roomchat/internal/preview"
	"github.com/joss/roomchat/internal/session"
	"github.com/joss/roomchat/internal/timeline"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func gameServer(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/session/create":
			writeJSON(w, http.StatusOK, map[string]any{"session_id": "s1", "welcome_info": "Welcome, detective", "status": "intro"})
		case r.URL.Path == "/api/chat":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, map[string]any{"bot_response": "echo " + body["message"], "status": "room 1"})
		case r.URL.Path == "/api/image/upload":
			writeJSON(w, http.StatusOK, map[string]any{"response": "Nice photo", "status": "room 1"})
		case r.URL.Path == "/api/item/submit":
			writeJSON(w, http.StatusOK, map[string]any{"response_info": "Item accepted", "status": "room 2"})
		case r.URL.Path == "/api/items/s1":
			writeJSON(w, http.StatusOK, map[string]any{"items": []string{"badge", "map"}})
		case strings.HasSuffix(r.URL.Path, "/reset"):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "backend busy"})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}
}

func newTestModel(t *testing.T, h http.HandlerFunc, cam *camera.Camera) ChatModel {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctrl := session.NewController(gateway.New(srv.URL+"/api"), timeline.New(preview.NewStore()),
		session.Options{SessionID: "s1", ConfigPath: "config/police.yaml"})
	t.Cleanup(ctrl.Close)

	m := NewChatModel(Options{Controller: ctrl, Camera: cam, GalleryRoot: t.TempDir(), Title: "Test Room"})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func update(t *testing.T, m ChatModel, msg tea.Msg) ChatModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(ChatModel)
}

func updateCmd(t *testing.T, m ChatModel, msg tea.Msg) (ChatModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(ChatModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func initialized(t *testing.T, m ChatModel) ChatModel {
	t.Helper()
	return update(t, m, initSession(context.Background(), m.ctrl)())
}

func TestInitShowsWelcome(t *testing.T) {
	m := initialized(t, newTestModel(t, gameServer(t), nil))

	assert.NoError(t, m.initErr)
	view := m.View()
	assert.Contains(t, view, "Test Room")
	assert.Contains(t, view, "Welcome, detective")
	assert.Contains(t, view, "connected")
}

func TestInitFailureShownInStatusBar(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "config not found"})
	}, nil)
	m = update(t, m, initSession(context.Background(), m.ctrl)())

	require.Error(t, m.initErr)
	assert.Contains(t, m.View(), "config not found")
	assert.Equal(t, 0, m.ctrl.Timeline().Len())
}

func TestSendMessage(t *testing.T) {
	m := initialized(t, newTestModel(t, gameServer(t), nil))

	m = update(t, m, runes("open the door"))
	assert.Equal(t, "open the door", m.input.Value())

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())

	m = update(t, m, cmd())
	assert.Empty(t, m.notice)

	msgs := m.ctrl.Timeline().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "open the door", msgs[1].Content)
	assert.Equal(t, "echo open the door", msgs[2].Content)
	assert.Contains(t, m.viewport.View(), "echo open the door")
}

func TestEnterOnBlankInputDoesNothing(t *testing.T) {
	m := initialized(t, newTestModel(t, gameServer(t), nil))
	m = update(t, m, runes("   "))

	_, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.ctrl.Timeline().Len())
}

func TestInputLockedWhilePending(t *testing.T) {
	m := initialized(t, newTestModel(t, gameServer(t), nil))

	m.ctrl.Timeline().SetPending(true)
	m = update(t, m, runes("abc"))
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "Waiting for the game master")

	_, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	m.ctrl.Timeline().SetPending(false)
	m = update(t, m, runes("abc"))
	assert.Equal(t, "abc", m.input.Value())
}

func TestSlashCommands(t *testing.T) {
	m := initialized(t, newTestModel(t, gameServer(t), nil))

	m = update(t, m, runes("/items"))
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	assert.Equal(t, "Items: badge, map", m.notice)

	m = update(t, m, runes("/item badge"))
	m, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	msgs := m.ctrl.Timeline().Messages()
	assert.Equal(t, "Submitted item: badge", msgs[len(msgs)-2].Content)
	assert.Equal(t, "Item accepted", msgs[len(msgs)-1].Content)

	m = update(t, m, runes("/dance"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.notice, "Unknown command: /dance")

	m = update(t, m, runes("/help"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modeAlert, m.mode)
	assert.Contains(t, m.alert, "/item <name>")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modeChat, m.mode)
}

func TestResetConfirmAndFailureAlert(t *testing.T) {
	m := initialized(t, newTestModel(t, gameServer(t), nil))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, modeConfirmReset, m.mode)
	assert.Contains(t, m.View(), "Are you sure you want to reset the game?")

	m = update(t, m, runes("n"))
	assert.Equal(t, modeChat, m.mode)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, cmd := updateCmd(t, m, runes("y"))
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.Equal(t, modeAlert, m.mode)
	assert.Contains(t, m.alert, "backend busy")
	assert.Equal(t, 1, m.ctrl.Timeline().Len())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeChat, m.mode)
}

func TestCameraWithoutDevice(t *testing.T) {
	m := initialized(t, newTestModel(t, gameServer(t), nil))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Equal(t, modeAlert, m.mode)
	assert.Contains(t, m.alert, "No camera")
}

type stubTrack struct{ stopped int }

func (t *stubTrack) Kind() string { return "video" }
func (t *stubTrack) Stop()        { t.stopped++ }

type stubStream struct{ track *stubTrack }

func (s *stubStream) Tracks() []camera.Track { return []camera.Track{s.track} }
func (s *stubStream) Frame() (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for x := 0; x < 16; x++ {
		for y := 0; y < 12; y++ {
			img.Set(x, y, color.RGBA{G: 180, A: 255})
		}
	}
	return img, nil
}

type stubDevice struct {
	stream *stubStream
	err    error
}

func (d *stubDevice) Open(context.Context, camera.Constraints) (camera.Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

func TestCameraCaptureSendsImage(t *testing.T) {
	dev := &stubDevice{stream: &stubStream{track: &stubTrack{}}}
	cam := camera.New(dev, camera.Constraints{})
	m := initialized(t, newTestModel(t, gameServer(t), cam))

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Equal(t, modeCamera, m.mode)
	require.NotNil(t, cmd)

	m, tick := updateCmd(t, m, cmd())
	assert.NotNil(t, tick)
	assert.Equal(t, camera.StatePreviewing, cam.State())
	assert.NotEmpty(t, m.camFrame)

	m, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NotNil(t, cmd)

	m, cmd = updateCmd(t, m, cmd())
	assert.Equal(t, modeChat, m.mode)
	assert.Equal(t, camera.StateIdle, cam.State())
	assert.Equal(t, 1, dev.stream.track.stopped)
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	msgs := m.ctrl.Timeline().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, session.ImageTurnText, msgs[1].Content)
	require.True(t, msgs[1].HasImage())
	assert.Equal(t, "image/jpeg", msgs[1].Image.MediaType)
	assert.Equal(t, "Nice photo", msgs[2].Content)
}

func TestCameraDeniedShowsAlert(t *testing.T) {
	dev := &stubDevice{err: errors.New("permission denied")}
	cam := camera.New(dev, camera.Constraints{})
	m := initialized(t, newTestModel(t, gameServer(t), cam))

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	m = update(t, m, cmd())
	assert.Equal(t, modeAlert, m.mode)
	assert.Contains(t, m.alert, "Unable to access the camera")
	assert.Equal(t, camera.StateIdle, cam.State())
}

func TestCameraCancel(t *testing.T) {
	dev := &stubDevice{stream: &stubStream{track: &stubTrack{}}}
	cam := camera.New(dev, camera.Constraints{})
	m := initialized(t, newTestModel(t, gameServer(t), cam))

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	m = update(t, m, cmd())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, modeChat, m.mode)
	assert.Equal(t, camera.StateIdle, cam.State())
	assert.Equal(t, 1, dev.stream.track.stopped)
	assert.Equal(t, 1, m.ctrl.Timeline().Len())
}

func TestPickerEmptyGallery(t *testing.T) {
	m := initialized(t, newTestModel(t, gameServer(t), nil))

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(t, modePicker, m.mode)
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	assert.Contains(t, m.View(), "No images found")

	m, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, modeChat, m.mode)
}
