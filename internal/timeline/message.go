package timeline

import "time"

// Role identifies who authored a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image references a locally-addressable preview of an attached image
type Image struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
}

// Message is a single turn. Messages are immutable once appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Image     *Image    `json:"image,omitempty"`
	Error     bool      `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasImage reports whether the turn carries an image
func (m Message) HasImage() bool { return m.Image != nil && m.Image.URL != "" }

// State tracks the exchange a user turn started
type State int

const (
	StatePending State = iota
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the timeline for rendering
type Snapshot struct {
	Messages []Message
	States   map[string]State
	Pending  bool
}
