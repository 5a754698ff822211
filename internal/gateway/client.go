// Package gateway is a typed client for the escape-room game REST API.
//
// Every call propagates transport errors and non-2xx responses to the caller
// unchanged; nothing is retried and no local timeout is applied beyond the
// caller's context.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/joss/roomchat/internal/logging"
	"github.com/joss/roomchat/internal/media"
)

// RequestIDHeader carries the per-call trace id.
const RequestIDHeader = "X-Request-ID"

// Client talks to the game backend.
type Client struct {
	baseURL string
	client  HTTPClient
	log     *logging.Logger
}

// New creates a client for baseURL (for example http://localhost:8000/api).
func New(baseURL string) *Client {
	return NewWithClient(baseURL, &http.Client{})
}

// NewWithClient creates a client with a custom HTTP transport.
func NewWithClient(baseURL string, client HTTPClient) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     logging.New("gateway"),
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// CreateSession creates (or replaces) a server-side game session.
func (c *Client) CreateSession(ctx context.Context, sessionID, configPath string) (*SessionInfo, error) {
	var info SessionInfo
	err := c.doJSON(ctx, "create session", http.MethodPost, "/session/create", nil,
		createSessionRequest{SessionID: sessionID, ConfigPath: configPath}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetSessionStatus fetches the current status of a session.
func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (*SessionInfo, error) {
	var info SessionInfo
	err := c.doJSON(ctx, "session status", http.MethodGet, "/session/"+url.PathEscape(sessionID)+"/status", nil, nil, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ResetSession restarts a session. An empty configPath lets the backend use
// its default scenario.
func (c *Client) ResetSession(ctx context.Context, sessionID, configPath string) (*SessionInfo, error) {
	var q url.Values
	if configPath != "" {
		q = url.Values{"config_path": {configPath}}
	}
	var info SessionInfo
	err := c.doJSON(ctx, "reset session", http.MethodPost, "/session/"+url.PathEscape(sessionID)+"/reset", q, nil, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteSession removes a session on the backend.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) (*DeleteResponse, error) {
	var resp DeleteResponse
	err := c.doJSON(ctx, "delete session", http.MethodDelete, "/session/"+url.PathEscape(sessionID), nil, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessage sends a player text message.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*ChatResponse, error) {
	var resp ChatResponse
	err := c.doJSON(ctx, "send message", http.MethodPost, "/chat", nil,
		chatRequest{SessionID: sessionID, Message: message}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadImage posts an image as multipart form field "file".
func (c *Client) UploadImage(ctx context.Context, sessionID string, file media.File) (*ImageUploadResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	mediaType := file.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	h.Set("Content-Type", mediaType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("upload image: create part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("upload image: write part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload image: close form: %w", err)
	}

	var resp ImageUploadResponse
	q := url.Values{"session_id": {sessionID}}
	if err := c.do(ctx, "upload image", http.MethodPost, "/image/upload", q, &body, w.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitItem hands an inventory item to the game.
func (c *Client) SubmitItem(ctx context.Context, sessionID, itemName string) (*ItemSubmitResponse, error) {
	var resp ItemSubmitResponse
	err := c.doJSON(ctx, "submit item", http.MethodPost, "/item/submit", nil,
		itemSubmitRequest{SessionID: sessionID, ItemName: itemName}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetItems lists the items currently available in a session.
func (c *Client) GetItems(ctx context.Context, sessionID string) (*ItemsResponse, error) {
	var resp ItemsResponse
	err := c.doJSON(ctx, "get items", http.MethodGet, "/items/"+url.PathEscape(sessionID), nil, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, query, body, contentType, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any) (err error) {
	start := time.Now()
	reqID := logging.GetRequestID(ctx)
	if reqID == "" {
		reqID = logging.NewRequestID()
	}
	defer func() {
		c.log.TimedEvent("request", start, map[string]interface{}{
			"op":         op,
			"method":     method,
			"path":       path,
			"request_id": reqID,
		}, err)
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(op, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
