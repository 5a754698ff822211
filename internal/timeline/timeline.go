// Package timeline is the ordered, append-only log of conversation turns.
package timeline

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joss/roomchat/internal/media"
	"github.com/joss/roomchat/internal/preview"
)

// Timeline holds turns in insertion order.
// Thread-safe for concurrent access.
type Timeline struct {
	mu       sync.RWMutex
	messages []Message
	states   map[string]State
	inFlight int
	pending  bool
	previews *preview.Store
	now      func() time.Time
}

// New creates an empty timeline whose image previews live in previews.
func New(previews *preview.Store) *Timeline {
	if previews == nil {
		previews = preview.NewStore()
	}
	return &Timeline{
		states:   make(map[string]State),
		previews: previews,
		now:      time.Now,
	}
}

// Previews returns the store backing image URLs.
func (t *Timeline) Previews() *preview.Store { return t.previews }

// AppendUser appends a player turn. An attached file gets its preview URL
// immediately so the turn renders before any upload completes.
func (t *Timeline) AppendUser(content string, file *media.File) Message {
	return t.append(RoleUser, content, file, false)
}

// AppendAssistant appends a reply turn, optionally carrying an image.
func (t *Timeline) AppendAssistant(content string, file *media.File) Message {
	return t.append(RoleAssistant, content, file, false)
}

// AppendError appends an assistant-role turn describing a failed exchange.
func (t *Timeline) AppendError(content string) Message {
	return t.append(RoleAssistant, content, nil, true)
}

func (t *Timeline) append(role Role, content string, file *media.File, isErr bool) Message {
	msg := t.newMessage(role, content, file)
	msg.Error = isErr

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
	return msg
}

func (t *Timeline) newMessage(role Role, content string, file *media.File) Message {
	msg := Message{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		CreatedAt: t.now(),
	}
	if file != nil {
		msg.Image = &Image{
			URL:       t.previews.Create(*file),
			Name:      file.Name,
			MediaType: file.MediaType,
		}
	}
	return msg
}

// Begin marks the exchange started by user turn id as in flight.
func (t *Timeline) Begin(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[id]; ok && st == StatePending {
		return
	}
	t.states[id] = StatePending
	t.inFlight++
}

// Confirm resolves the exchange for id successfully.
func (t *Timeline) Confirm(id string) { t.resolve(id, StateConfirmed) }

// Fail resolves the exchange for id as failed.
func (t *Timeline) Fail(id string) { t.resolve(id, StateFailed) }

func (t *Timeline) resolve(id string, st State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.states[id]; ok && cur == StatePending {
		t.inFlight--
	}
	t.states[id] = st
}

// State returns the exchange state for a user turn.
func (t *Timeline) State(id string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.states[id]
	return st, ok
}

// SetPending toggles the loading indicator independently of tracked exchanges.
func (t *Timeline) SetPending(on bool) {
	t.mu.Lock()
	t.pending = on
	t.mu.Unlock()
}

// Pending reports whether the single loading indicator is shown.
func (t *Timeline) Pending() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pending || t.inFlight > 0
}

// Replace swaps the whole log for msgs, revoking the previews of evicted
// turns, and returns the evicted turns.
func (t *Timeline) Replace(msgs ...Message) []Message {
	t.mu.Lock()
	evicted := t.messages
	t.messages = append([]Message(nil), msgs...)
	t.states = make(map[string]State)
	t.inFlight = 0
	t.pending = false
	t.mu.Unlock()

	keep := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if m.HasImage() {
			keep[m.Image.URL] = true
		}
	}
	for _, m := range evicted {
		if m.HasImage() && !keep[m.Image.URL] {
			t.previews.Revoke(m.Image.URL)
		}
	}
	return evicted
}

// ResetTo replaces the log with a single assistant turn.
func (t *Timeline) ResetTo(content string) Message {
	msg := t.newMessage(RoleAssistant, content, nil)
	t.Replace(msg)
	return msg
}

// Messages returns a copy of all turns in insertion order.
func (t *Timeline) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	msgs := make([]Message, len(t.messages))
	copy(msgs, t.messages)
	return msgs
}

// Len returns the number of turns.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Snapshot returns messages, exchange states and the pending flag together.
func (t *Timeline) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		Messages: make([]Message, len(t.messages)),
		States:   make(map[string]State, len(t.states)),
		Pending:  t.pending || t.inFlight > 0,
	}
	copy(s.Messages, t.messages)
	for k, v := range t.states {
		s.States[k] = v
	}
	return s
}

// Close empties the timeline and revokes every preview URL in its store.
func (t *Timeline) Close() {
	t.mu.Lock()
	t.messages = nil
	t.states = make(map[string]State)
	t.inFlight = 0
	t.pending = false
	t.mu.Unlock()

	t.previews.RevokeAll()
}
