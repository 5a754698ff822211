// Package camera implements the live capture state machine:
// Idle -> Previewing -> Capturing -> Idle.
//
// The Camera exclusively owns the active stream and releases it on every
// exit path: cancel, capture (successful or not) and Close.
package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"sync"
	"time"

	"github.com/joss/roomchat/internal/logging"
	"github.com/joss/roomchat/internal/media"
)

// State of the capture state machine
type State int

const (
	StateIdle State = iota
	StatePreviewing
	StateCapturing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewing:
		return "previewing"
	case StateCapturing:
		return "capturing"
	default:
		return "unknown"
	}
}

// JPEGQuality matches the browser default for canvas.toBlob("image/jpeg").
const JPEGQuality = 92

// Camera drives a Device through the capture states.
type Camera struct {
	mu          sync.Mutex
	dev         Device
	constraints Constraints
	state       State
	stream      Stream
	gen         uint64
	now         func() time.Time
	log         *logging.Logger
}

// New creates an idle camera. An empty facing defaults to the rear camera.
func New(dev Device, c Constraints) *Camera {
	if c.Facing == "" {
		c.Facing = FacingEnvironment
	}
	return &Camera{
		dev:         dev,
		constraints: c,
		now:         time.Now,
		log:         logging.New("camera"),
	}
}

// State returns the current state.
func (c *Camera) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Visible reports whether the preview should be shown.
func (c *Camera) Visible() bool {
	return c.State() != StateIdle
}

// Start acquires a stream and enters Previewing. On failure the camera stays
// Idle and the error is a *PermissionError.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	// Hold the slot while opening so a second Start cannot race us.
	c.state = StatePreviewing
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	stream, err := c.dev.Open(ctx, c.constraints)
	if err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.state = StateIdle
		}
		c.mu.Unlock()

		if !IsPermission(err) {
			err = &PermissionError{Device: string(c.constraints.Facing), Err: err}
		}
		c.log.Warn("start_failed", map[string]interface{}{"facing": c.constraints.Facing}, err)
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		// Cancelled while the device was opening.
		c.mu.Unlock()
		stopAll(stream)
		return ErrCancelled
	}
	c.stream = stream
	c.mu.Unlock()

	c.log.Info("preview_started", map[string]interface{}{"tracks": len(stream.Tracks())})
	return nil
}

// Frame returns the current live frame for previewing.
func (c *Camera) Frame() (image.Image, error) {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()

	if stream == nil {
		return nil, ErrNotPreviewing
	}
	return stream.Frame()
}

// Cancel stops all tracks, detaches the stream and returns to Idle.
func (c *Camera) Cancel() {
	c.release("cancel")
}

// Close releases the camera on teardown. Safe to call in any state.
func (c *Camera) Close() {
	c.release("close")
}

// Capture grabs the current frame as a JPEG file and returns to Idle. The
// stream is released exactly once whether or not encoding succeeds.
func (c *Camera) Capture(ctx context.Context) (media.File, error) {
	c.mu.Lock()
	if c.state != StatePreviewing || c.stream == nil {
		c.mu.Unlock()
		return media.File{}, ErrNotPreviewing
	}
	c.state = StateCapturing
	stream := c.stream
	c.mu.Unlock()

	defer c.release("capture")

	if err := ctx.Err(); err != nil {
		return media.File{}, err
	}

	frame, err := stream.Frame()
	if err != nil {
		return media.File{}, fmt.Errorf("read frame: %w", err)
	}

	data, err := EncodeJPEG(frame)
	if err != nil {
		return media.File{}, fmt.Errorf("encode frame: %w", err)
	}

	file := media.File{
		Name:      fmt.Sprintf("camera-photo-%d.jpg", c.now().UnixMilli()),
		MediaType: "image/jpeg",
		Data:      data,
	}
	c.log.Info("captured", map[string]interface{}{
		"bytes":  len(data),
		"width":  frame.Bounds().Dx(),
		"height": frame.Bounds().Dy(),
	})
	return file, nil
}

func (c *Camera) release(reason string) {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	wasActive := c.state != StateIdle
	c.state = StateIdle
	c.gen++
	c.mu.Unlock()

	if stream == nil {
		if wasActive {
			c.log.Debug("released_while_opening", map[string]interface{}{"reason": reason})
		}
		return
	}
	stopAll(stream)
	c.log.Info("stream_released", map[string]interface{}{"reason": reason})
}

func stopAll(s Stream) {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// EncodeJPEG draws frame onto a raster sized to its native resolution and
// encodes it as JPEG.
func EncodeJPEG(frame image.Image) ([]byte, error) {
	if frame == nil {
		return nil, ErrNoFrame
	}
	b := frame.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty frame %v", b)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), frame, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
