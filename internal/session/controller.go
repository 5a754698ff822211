// Package session owns the lifecycle of one game session and the message
// exchanges made within it.
//
// Player actions append their turn to the timeline immediately and then wait
// in a FIFO queue; exactly one backend exchange runs at a time, so replies are
// appended in the order the player sent them.
package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joss/roomchat/internal/gateway"
	"github.com/joss/roomchat/internal/logging"
	"github.com/joss/roomchat/internal/media"
	"github.com/joss/roomchat/internal/timeline"
)

// Gateway is the subset of the backend client the controller needs.
type Gateway interface {
	CreateSession(ctx context.Context, sessionID, configPath string) (*gateway.SessionInfo, error)
	GetSessionStatus(ctx context.Context, sessionID string) (*gateway.SessionInfo, error)
	ResetSession(ctx context.Context, sessionID, configPath string) (*gateway.SessionInfo, error)
	SendMessage(ctx context.Context, sessionID, message string) (*gateway.ChatResponse, error)
	UploadImage(ctx context.Context, sessionID string, file media.File) (*gateway.ImageUploadResponse, error)
	SubmitItem(ctx context.Context, sessionID, itemName string) (*gateway.ItemSubmitResponse, error)
	GetItems(ctx context.Context, sessionID string) (*gateway.ItemsResponse, error)
}

var _ Gateway = (*gateway.Client)(nil)

// Confirmer asks the player a blocking yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed answers yes without asking; for callers that already prompted.
var Confirmed Confirmer = ConfirmFunc(func(string) bool { return true })

// Options configure a controller.
type Options struct {
	SessionID  string
	ConfigPath string
	LevelID    string
}

// Info is a snapshot of session metadata.
type Info struct {
	ID          string
	ConfigPath  string
	LevelID     string
	Status      string
	Items       []string
	Initialized bool
}

type exchange struct {
	ctx  context.Context
	kind string
	run  func(ctx context.Context) (timeline.Message, error)
	done chan result
}

type result struct {
	msg timeline.Message
	err error
}

// Controller drives one session.
type Controller struct {
	gw   Gateway
	tl   *timeline.Timeline
	opts Options
	log  *logging.Logger
	now  func() time.Time

	mu          sync.RWMutex
	status      string
	items       []string
	initialized bool

	// turnMu orders optimistic user turns against timeline resets; epoch
	// counts the resets.
	turnMu sync.Mutex
	epoch  uint64

	qmu      sync.Mutex
	queue    []*exchange
	draining bool
	closed   bool

	subMu sync.RWMutex
	subs  []func()
}

// NewController creates a controller writing into tl. An empty SessionID gets
// a generated one.
func NewController(gw Gateway, tl *timeline.Timeline, opts Options) *Controller {
	now := time.Now
	if opts.SessionID == "" {
		opts.SessionID = NewID(now(), opts.LevelID)
	}
	return &Controller{
		gw:   gw,
		tl:   tl,
		opts: opts,
		log:  logging.New("session").WithSession(opts.SessionID),
		now:  now,
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.opts.SessionID }

// ConfigPath returns the scenario file the session was created with.
func (c *Controller) ConfigPath() string { return c.opts.ConfigPath }

// Timeline returns the timeline the controller writes to.
func (c *Controller) Timeline() *timeline.Timeline { return c.tl }

// Status returns the last status string reported by the backend.
func (c *Controller) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Items returns the last known item names.
func (c *Controller) Items() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.items...)
}

// Info returns a snapshot of the session metadata.
func (c *Controller) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Info{
		ID:          c.opts.SessionID,
		ConfigPath:  c.opts.ConfigPath,
		LevelID:     c.opts.LevelID,
		Status:      c.status,
		Items:       append([]string(nil), c.items...),
		Initialized: c.initialized,
	}
}

// Subscribe registers fn to run after every timeline or status change.
func (c *Controller) Subscribe(fn func()) {
	c.subMu.Lock()
	c.subs = append(c.subs, fn)
	c.subMu.Unlock()
}

func (c *Controller) notify() {
	c.subMu.RLock()
	subs := append([]func(){}, c.subs...)
	c.subMu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

func (c *Controller) applyInfo(info *gateway.SessionInfo) {
	c.mu.Lock()
	c.status = info.Status
	if info.ItemNames != nil {
		c.items = append([]string(nil), info.ItemNames...)
	}
	c.mu.Unlock()
}

func (c *Controller) setStatus(status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

// Initialize creates the backend session and seeds the timeline with the
// welcome turn. On failure the timeline is left untouched and the error is
// logged and returned.
func (c *Controller) Initialize(ctx context.Context) (*gateway.SessionInfo, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	info, err := c.gw.CreateSession(ctx, c.opts.SessionID, c.opts.ConfigPath)
	if err != nil {
		c.log.Error("initialize_failed", map[string]interface{}{"config_path": c.opts.ConfigPath}, err)
		return nil, err
	}

	c.resetTimeline(info.WelcomeInfo)
	c.applyInfo(info)
	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	c.log.Info("initialized", map[string]interface{}{"status": info.Status})
	c.notify()
	return info, nil
}

// Reset restarts the game after the player confirms. On success the timeline
// is replaced by a single welcome turn; on failure it is left untouched.
func (c *Controller) Reset(ctx context.Context, confirm Confirmer) (*gateway.SessionInfo, error) {
	if confirm == nil || !confirm.Confirm(ResetPrompt) {
		return nil, ErrResetDeclined
	}

	var info *gateway.SessionInfo
	_, err := c.submit(ctx, "reset", func(ctx context.Context) (timeline.Message, error) {
		if c.isClosed() {
			return timeline.Message{}, ErrClosed
		}
		c.tl.SetPending(true)
		c.notify()

		var err error
		info, err = c.gw.ResetSession(ctx, c.opts.SessionID, c.opts.ConfigPath)
		if err != nil {
			c.tl.SetPending(false)
			c.log.Error("reset_failed", nil, err)
			return timeline.Message{}, err
		}
		msg := c.resetTimeline(info.WelcomeInfo)
		c.applyInfo(info)
		c.log.Info("reset", map[string]interface{}{"status": info.Status})
		return msg, nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// resetTimeline replaces the timeline with the welcome turn and invalidates
// every user turn appended before it.
func (c *Controller) resetTimeline(welcome string) timeline.Message {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	msg := c.tl.ResetTo(welcome)
	c.epoch++
	return msg
}

// appendTurn adds an optimistic user turn and returns the epoch it belongs to.
func (c *Controller) appendTurn(content string, file *media.File) (timeline.Message, uint64) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	user := c.tl.AppendUser(content, file)
	c.tl.Begin(user.ID)
	return user, c.epoch
}

func (c *Controller) staleEpoch(epoch uint64) bool {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	return epoch != c.epoch
}

// RefreshStatus re-reads the session status from the backend.
func (c *Controller) RefreshStatus(ctx context.Context) (*gateway.SessionInfo, error) {
	info, err := c.gw.GetSessionStatus(ctx, c.opts.SessionID)
	if err != nil {
		c.log.Warn("status_failed", nil, err)
		return nil, err
	}
	c.applyInfo(info)
	c.notify()
	return info, nil
}

// ListItems fetches the items currently available.
func (c *Controller) ListItems(ctx context.Context) ([]string, error) {
	resp, err := c.gw.GetItems(ctx, c.opts.SessionID)
	if err != nil {
		c.log.Warn("items_failed", nil, err)
		return nil, err
	}
	c.mu.Lock()
	c.items = append([]string(nil), resp.Items...)
	c.mu.Unlock()
	c.notify()
	return resp.Items, nil
}

// SendText appends the player's message and exchanges it with the backend.
// It returns the reply turn, or the error turn together with the failure.
func (c *Controller) SendText(ctx context.Context, text string) (timeline.Message, error) {
	if strings.TrimSpace(text) == "" {
		return timeline.Message{}, ErrEmptyMessage
	}
	return c.exchangeTurn(ctx, "text", text, nil, SendFailedText, func(ctx context.Context) (string, *media.File, error) {
		resp, err := c.gw.SendMessage(ctx, c.opts.SessionID, text)
		if err != nil {
			return "", nil, err
		}
		c.setStatus(resp.Status)
		return resp.BotResponse, nil, nil
	})
}

// SendImage appends an image turn, previewable immediately, and uploads it.
func (c *Controller) SendImage(ctx context.Context, file media.File) (timeline.Message, error) {
	if !file.IsImage() {
		return timeline.Message{}, fmt.Errorf("%s: %w", file.Name, media.ErrNotImage)
	}
	return c.exchangeTurn(ctx, "image", ImageTurnText, &file, UploadFailedText, func(ctx context.Context) (string, *media.File, error) {
		resp, err := c.gw.UploadImage(ctx, c.opts.SessionID, file)
		if err != nil {
			return "", nil, err
		}
		c.setStatus(resp.Status)
		return resp.Response, c.decodeImage("display", resp.DisplayImageBase64), nil
	})
}

// SubmitItem hands an inventory item to the game.
func (c *Controller) SubmitItem(ctx context.Context, name string) (timeline.Message, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return timeline.Message{}, ErrEmptyItem
	}
	return c.exchangeTurn(ctx, "item", fmt.Sprintf(ItemTurnFmt, name), nil, SubmitFailedText, func(ctx context.Context) (string, *media.File, error) {
		resp, err := c.gw.SubmitItem(ctx, c.opts.SessionID, name)
		if err != nil {
			return "", nil, err
		}
		c.setStatus(resp.Status)
		return resp.ResponseInfo, c.decodeImage("item", resp.ImageBase64), nil
	})
}

type callFunc func(ctx context.Context) (reply string, image *media.File, err error)

func (c *Controller) exchangeTurn(ctx context.Context, kind, content string, file *media.File, failText string, call callFunc) (timeline.Message, error) {
	if c.isClosed() {
		return timeline.Message{}, ErrClosed
	}

	// Optimistic: the turn is visible before the request is even queued.
	user, epoch := c.appendTurn(content, file)
	c.notify()

	msg, err := c.submit(ctx, kind, func(ctx context.Context) (timeline.Message, error) {
		// A reset ran while this turn waited in the queue and already
		// removed it from the timeline.
		if c.staleEpoch(epoch) {
			c.log.Debug("exchange_dropped", map[string]interface{}{"kind": kind})
			return timeline.Message{}, ErrSessionReset
		}
		start := time.Now()
		reply, img, err := call(ctx)
		c.log.TimedEvent("exchange", start, map[string]interface{}{"kind": kind}, err)

		if c.isClosed() {
			return timeline.Message{}, ErrClosed
		}
		if err != nil {
			c.tl.Fail(user.ID)
			return c.tl.AppendError(errorText(failText, err)), err
		}
		c.tl.Confirm(user.ID)
		return c.tl.AppendAssistant(reply, img), nil
	})

	// Exchanges that never ran or panicked must not keep the spinner alive.
	if c.staleEpoch(epoch) {
		return msg, err
	}
	if st, ok := c.tl.State(user.ID); ok && st == timeline.StatePending {
		c.tl.Fail(user.ID)
	}
	return msg, err
}

// submit queues fn and waits for its result.
func (c *Controller) submit(ctx context.Context, kind string, fn func(ctx context.Context) (timeline.Message, error)) (timeline.Message, error) {
	ex := &exchange{
		ctx:  ctx,
		kind: kind,
		run:  fn,
		done: make(chan result, 1),
	}

	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		return timeline.Message{}, ErrClosed
	}
	c.queue = append(c.queue, ex)
	if !c.draining {
		c.draining = true
		logging.SafeGo("session", c.drain)
	}
	c.qmu.Unlock()

	r := <-ex.done
	return r.msg, r.err
}

func (c *Controller) drain() {
	for {
		c.qmu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			c.qmu.Unlock()
			return
		}
		ex := c.queue[0]
		c.queue = c.queue[1:]
		c.qmu.Unlock()

		c.log.Debug("exchange_start", map[string]interface{}{"kind": ex.kind, "queued": c.queued()})
		var msg timeline.Message
		handler := logging.NewRecoveryHandler("session")
		err := handler.WrapError(func() error {
			var err error
			msg, err = ex.run(ex.ctx)
			return err
		})

		ex.done <- result{msg: msg, err: err}
		c.notify()
	}
}

func (c *Controller) queued() int {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	return len(c.queue)
}

// Pending reports whether any exchange is queued or in flight.
func (c *Controller) Pending() bool {
	return c.tl.Pending()
}

// Close releases every preview URL and refuses further exchanges. Exchanges
// already queued finish without touching the timeline.
func (c *Controller) Close() {
	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		return
	}
	c.closed = true
	c.qmu.Unlock()

	c.tl.Close()
	c.log.Info("closed", nil)
}

func (c *Controller) isClosed() bool {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	return c.closed
}

func (c *Controller) decodeImage(prefix, b64 string) *media.File {
	if b64 == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		c.log.Warn("reply_image_invalid", map[string]interface{}{"source": prefix}, err)
		return nil
	}
	f := media.FromBytes(fmt.Sprintf("%s-%d.png", prefix, c.now().UnixMilli()), data)
	return &f
}

func errorText(base string, err error) string {
	if detail := gateway.Detail(err); detail != "" {
		return base + " (" + detail + ")"
	}
	return base
}
