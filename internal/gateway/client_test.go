package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/roomchat/internal/logging"
	"github.com/joss/roomchat/internal/media"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestCreateSession(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/session/create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s1", body["session_id"])
		assert.Equal(t, "config/police.yaml", body["config_path"])

		writeJSON(w, http.StatusOK, map[string]any{
			"session_id":   "s1",
			"welcome_info": "Welcome",
			"item_names":   []string{"badge"},
			"status":       "intro",
		})
	})

	info, err := c.CreateSession(context.Background(), "s1", "config/police.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", info.WelcomeInfo)
	assert.Equal(t, "intro", info.Status)
	assert.Equal(t, []string{"badge"}, info.ItemNames)
}

func TestRequestIDFromContext(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-1", r.Header.Get(RequestIDHeader))
		writeJSON(w, http.StatusOK, map[string]any{"items": []string{}})
	})

	ctx := logging.WithRequestID(context.Background(), "trace-1")
	_, err := c.GetItems(ctx, "s1")
	require.NoError(t, err)
}

func TestSessionStatusAndReset(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/session/s1/status":
			writeJSON(w, http.StatusOK, map[string]any{"session_id": "s1", "status": "room 2"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/session/s1/reset":
			assert.Equal(t, "config/taoist.yaml", r.URL.Query().Get("config_path"))
			writeJSON(w, http.StatusOK, map[string]any{"session_id": "s1", "welcome_info": "Again", "status": "intro"})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	info, err := c.GetSessionStatus(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "room 2", info.Status)

	info, err = c.ResetSession(context.Background(), "s1", "config/taoist.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Again", info.WelcomeInfo)
}

func TestResetWithoutConfigPath(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{"status": "intro"})
	})

	_, err := c.ResetSession(context.Background(), "s1", "")
	require.NoError(t, err)
}

func TestSendMessage(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "open the door", body["message"])
		writeJSON(w, http.StatusOK, map[string]any{
			"user_input":   "open the door",
			"bot_response": "The door creaks open.",
			"status":       "hallway",
		})
	})

	resp, err := c.SendMessage(context.Background(), "s1", "open the door")
	require.NoError(t, err)
	assert.Equal(t, "The door creaks open.", resp.BotResponse)
	assert.Equal(t, "hallway", resp.Status)
}

func TestUploadImage(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/image/upload", r.URL.Path)
		assert.Equal(t, "s1", r.URL.Query().Get("session_id"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)

		assert.Equal(t, "camera-photo.jpg", hdr.Filename)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)

		writeJSON(w, http.StatusOK, map[string]any{
			"user_info":            "photo",
			"response":             "A rusty key!",
			"status":               "found key",
			"display_image_base64": "aGVsbG8=",
		})
	})

	file := media.File{Name: "camera-photo.jpg", MediaType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}
	resp, err := c.UploadImage(context.Background(), "s1", file)
	require.NoError(t, err)
	assert.Equal(t, "A rusty key!", resp.Response)
	assert.Equal(t, "aGVsbG8=", resp.DisplayImageBase64)
}

func TestSubmitItemAndGetItems(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/item/submit":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "badge", body["item_name"])
			writeJSON(w, http.StatusOK, map[string]any{"user_info": "u", "response_info": "Accepted", "status": "s"})
		case "/api/items/s1":
			writeJSON(w, http.StatusOK, map[string]any{"items": []string{"badge", "map"}})
		}
	})

	resp, err := c.SubmitItem(context.Background(), "s1", "badge")
	require.NoError(t, err)
	assert.Equal(t, "Accepted", resp.ResponseInfo)

	items, err := c.GetItems(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"badge", "map"}, items.Items)
}

func TestDeleteSession(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/session/s1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"message": "deleted", "session_id": "s1"})
	})

	resp, err := c.DeleteSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.SessionID)
}

func TestAPIErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"fastapi detail", http.StatusTooManyRequests, `{"detail":"quota exceeded"}`, "quota exceeded"},
		{"structured detail", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{"plain body", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"empty body", http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.SendMessage(context.Background(), "s1", "hi")
			require.Error(t, err)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, "send message", apiErr.Op)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "session not found"})
	})

	_, err := c.GetSessionStatus(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "session not found", Detail(err))
	assert.False(t, IsNotFound(errors.New("other")))
}

type failingClient struct{ err error }

func (f failingClient) Do(*http.Request) (*http.Response, error) { return nil, f.err }

func TestTransportErrorPropagates(t *testing.T) {
	sentinel := errors.New("connection refused")
	c := NewWithClient("http://backend/api", failingClient{err: sentinel})

	_, err := c.CreateSession(context.Background(), "s1", "config/police.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestDecodeError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	})

	_, err := c.GetItems(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestCancelledContext(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SendMessage(ctx, "s1", "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBaseURLNormalized(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/api", New("http://localhost:8000/api/").BaseURL())
}
