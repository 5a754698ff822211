package gateway

// SessionInfo is returned by session create, status and reset.
type SessionInfo struct {
	SessionID   string   `json:"session_id"`
	WelcomeInfo string   `json:"welcome_info"`
	ItemNames   []string `json:"item_names,omitempty"`
	Status      string   `json:"status"`
}

// ChatResponse is the reply to a text message.
type ChatResponse struct {
	UserInput   string `json:"user_input"`
	BotResponse string `json:"bot_response"`
	Status      string `json:"status"`
}

// ImageUploadResponse is the reply to an uploaded image. DisplayImageBase64
// is a downscaled PNG the backend returns for display.
type ImageUploadResponse struct {
	UserInfo           string `json:"user_info"`
	Response           string `json:"response"`
	Status             string `json:"status"`
	DisplayImageBase64 string `json:"display_image_base64,omitempty"`
}

// ItemSubmitResponse is the reply to an item submission.
type ItemSubmitResponse struct {
	UserInfo     string `json:"user_info"`
	ResponseInfo string `json:"response_info"`
	Status       string `json:"status"`
	ImageBase64  string `json:"image_base64,omitempty"`
}

// ItemsResponse lists the items currently available in a session.
type ItemsResponse struct {
	Items []string `json:"items"`
}

// DeleteResponse confirms a session deletion.
type DeleteResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type createSessionRequest struct {
	SessionID  string `json:"session_id"`
	ConfigPath string `json:"config_path"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type itemSubmitRequest struct {
	SessionID string `json:"session_id"`
	ItemName  string `json:"item_name"`
}
