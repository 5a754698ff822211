package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/joss/roomchat/internal/logging"
)

// FFmpegDevice captures from a V4L2 device through an ffmpeg child process
// that writes an MJPEG stream to its stdout.
type FFmpegDevice struct {
	// Binary is the ffmpeg executable.
	Binary string
	// Path is the rear (environment) camera device, e.g. /dev/video0.
	Path string
	// FrontPath is used for FacingUser when set.
	FrontPath string
	// Format is the ffmpeg input format, v4l2 on Linux.
	Format string
	// FirstFrameTimeout bounds how long Open waits for the first frame.
	FirstFrameTimeout time.Duration
}

// NewFFmpegDevice creates a device for path using the given ffmpeg binary.
func NewFFmpegDevice(binary, path string) *FFmpegDevice {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegDevice{
		Binary:            binary,
		Path:              path,
		Format:            "v4l2",
		FirstFrameTimeout: 10 * time.Second,
	}
}

func (d *FFmpegDevice) devicePath(f Facing) string {
	if f == FacingUser && d.FrontPath != "" {
		return d.FrontPath
	}
	return d.Path
}

// Args returns the ffmpeg command line for the constraints.
func (d *FFmpegDevice) Args(c Constraints) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-f", d.Format}
	if c.Width > 0 && c.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", c.Width, c.Height))
	}
	args = append(args,
		"-i", d.devicePath(c.Facing),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "3",
		"-",
	)
	return args
}

// Open starts ffmpeg and waits for the first frame.
func (d *FFmpegDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	path := d.devicePath(c.Facing)
	if _, err := os.Stat(path); err != nil {
		return nil, &PermissionError{Device: path, Err: err}
	}
	if _, err := exec.LookPath(d.Binary); err != nil {
		return nil, &PermissionError{Device: path, Err: fmt.Errorf("ffmpeg not available: %w", err)}
	}

	cmd := exec.Command(d.Binary, d.Args(c)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &PermissionError{Device: path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &PermissionError{Device: path, Err: err}
	}

	s := &ffmpegStream{
		cmd:   cmd,
		first: make(chan struct{}),
		done:  make(chan struct{}),
		log:   logging.New("camera"),
	}
	s.track = &ffmpegTrack{stream: s}
	logging.SafeGo("camera", func() { s.read(stdout) })

	timeout := d.FirstFrameTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.first:
		return s, nil
	case <-s.done:
		s.track.Stop()
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "ffmpeg exited before producing a frame"
		}
		return nil, &PermissionError{Device: path, Err: errors.New(msg)}
	case <-timer.C:
		s.track.Stop()
		return nil, &PermissionError{Device: path, Err: fmt.Errorf("no frame within %v", timeout)}
	case <-ctx.Done():
		s.track.Stop()
		return nil, &PermissionError{Device: path, Err: ctx.Err()}
	}
}

type ffmpegStream struct {
	cmd   *exec.Cmd
	track *ffmpegTrack

	mu     sync.RWMutex
	latest []byte

	firstOnce sync.Once
	first     chan struct{}
	done      chan struct{}
	log       *logging.Logger
}

func (s *ffmpegStream) Tracks() []Track { return []Track{s.track} }

func (s *ffmpegStream) Frame() (image.Image, error) {
	s.mu.RLock()
	data := s.latest
	s.mu.RUnlock()

	if data == nil {
		return nil, ErrNoFrame
	}
	return jpeg.Decode(bytes.NewReader(data))
}

func (s *ffmpegStream) read(r io.Reader) {
	defer close(s.done)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256*1024), 16*1024*1024)
	sc.Split(ScanJPEG)

	for sc.Scan() {
		frame := append([]byte(nil), sc.Bytes()...)
		s.mu.Lock()
		s.latest = frame
		s.mu.Unlock()
		s.firstOnce.Do(func() { close(s.first) })
	}
	if err := sc.Err(); err != nil {
		s.log.Warn("stream_read_failed", nil, err)
	}
}

type ffmpegTrack struct {
	stream *ffmpegStream
	once   sync.Once
}

func (t *ffmpegTrack) Kind() string { return "video" }

// Stop kills ffmpeg and reaps it. Only the first call has an effect.
func (t *ffmpegTrack) Stop() {
	t.once.Do(func() {
		if p := t.stream.cmd.Process; p != nil {
			_ = p.Kill()
		}
		_ = t.stream.cmd.Wait()
	})
}

var (
	jpegSOI = []byte{0xff, 0xd8}
	jpegEOI = []byte{0xff, 0xd9}
)

// ScanJPEG is a bufio.SplitFunc that yields complete JPEG images from a
// concatenated MJPEG byte stream. Bytes before a start-of-image marker are
// discarded.
func ScanJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.Index(data, jpegSOI)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep a trailing 0xff in case it starts a marker.
		if n := len(data); n > 0 && data[n-1] == 0xff {
			return n - 1, nil, nil
		}
		return len(data), nil, nil
	}

	end := bytes.Index(data[start+2:], jpegEOI)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Drop junk before SOI and wait for more data.
		return start, nil, nil
	}

	stop := start + 2 + end + 2
	return stop, data[start:stop], nil
}
