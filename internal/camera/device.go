package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Facing selects which physical camera to prefer
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Constraints describe the requested video stream
type Constraints struct {
	Facing Facing
	Width  int
	Height int
}

// Track is one media track of a stream. Stop releases the underlying
// hardware and must be safe to call more than once.
type Track interface {
	Kind() string
	Stop()
}

// Stream is a live video source.
type Stream interface {
	Tracks() []Track
	// Frame returns the most recent frame at the stream's native resolution.
	Frame() (image.Image, error)
}

// Device opens video streams.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

var (
	// ErrBusy is returned when a camera session is already active.
	ErrBusy = errors.New("camera already active")

	// ErrNotPreviewing is returned by Capture outside the Previewing state.
	ErrNotPreviewing = errors.New("camera is not previewing")

	// ErrNoFrame is returned when the stream has not produced a frame yet.
	ErrNoFrame = errors.New("no frame available")

	// ErrCancelled is returned by Start when the session was cancelled while
	// the device was still opening.
	ErrCancelled = errors.New("camera start cancelled")
)

// PermissionError reports that a stream could not be acquired, whether the
// user denied access or the hardware is missing.
type PermissionError struct {
	Device string
	Err    error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot access camera %s: %v", e.Device, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// IsPermission reports whether err is a *PermissionError.
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
