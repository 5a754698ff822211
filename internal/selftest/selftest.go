// Package selftest provides runtime environment validation and self-diagnostics.
package selftest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/joss/roomchat/internal/exec"
	"github.com/joss/roomchat/internal/gateway"
	"github.com/joss/roomchat/internal/levels"
)

// Component states, worst last.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// probeSession is looked up to reach the backend; a 404 proves it is up.
const probeSession = "roomchat-selftest-probe"

// slowBackend marks a reachable backend as degraded.
const slowBackend = 2 * time.Second

// ComponentStatus represents health of a single component
type ComponentStatus struct {
	Status  string `json:"status"` // ok, degraded, error
	Latency int64  `json:"latency_ms,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Report is the outcome of a Check.
type Report struct {
	Status     string                     `json:"status"` // healthy, degraded, unhealthy
	HasTTY     bool                       `json:"tty"`
	Components map[string]ComponentStatus `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// StatusGetter is the backend call used to probe reachability.
type StatusGetter interface {
	GetSessionStatus(ctx context.Context, sessionID string) (*gateway.SessionInfo, error)
}

// Checker validates everything the client depends on.
type Checker struct {
	Backend      StatusGetter
	Runner       exec.Runner
	FFmpeg       string
	CameraDevice string
	LevelsFile   string
	LogFile      string
}

// Check runs every component check concurrently.
func (c *Checker) Check(ctx context.Context) *Report {
	report := &Report{
		Status:     "healthy",
		HasTTY:     term.IsTerminal(int(os.Stdin.Fd())),
		Components: make(map[string]ComponentStatus),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	checks := []struct {
		name  string
		check func(context.Context) ComponentStatus
	}{
		{"backend", c.checkBackend},
		{"ffmpeg", c.checkFFmpeg},
		{"camera", c.checkCamera},
		{"levels", c.checkLevels},
		{"log_file", c.checkLogFile},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, chk := range checks {
		wg.Add(1)
		go func(name string, check func(context.Context) ComponentStatus) {
			defer wg.Done()
			result := check(ctx)
			mu.Lock()
			defer mu.Unlock()
			report.Components[name] = result
			if result.Status == StatusError {
				report.Status = "unhealthy"
			} else if result.Status == StatusDegraded && report.Status == "healthy" {
				report.Status = "degraded"
			}
		}(chk.name, chk.check)
	}
	wg.Wait()

	return report
}

func (c *Checker) checkBackend(ctx context.Context) ComponentStatus {
	if c.Backend == nil {
		return ComponentStatus{Status: StatusError, Error: "no backend configured"}
	}
	start := time.Now()

	_, err := c.Backend.GetSessionStatus(ctx, probeSession)
	latency := time.Since(start)
	switch {
	case err == nil, gateway.IsNotFound(err):
	case isAPIError(err):
		return ComponentStatus{Status: StatusDegraded, Latency: latency.Milliseconds(), Error: gateway.Detail(err)}
	default:
		return ComponentStatus{Status: StatusError, Latency: latency.Milliseconds(), Error: err.Error()}
	}

	status := StatusOK
	if latency > slowBackend {
		status = StatusDegraded
	}
	return ComponentStatus{Status: status, Latency: latency.Milliseconds()}
}

func isAPIError(err error) bool {
	_, ok := gateway.AsAPIError(err)
	return ok
}

// Camera support is optional, so the capture checks only degrade.
func (c *Checker) checkFFmpeg(ctx context.Context) ComponentStatus {
	if c.Runner == nil {
		return ComponentStatus{Status: StatusDegraded, Error: "no command runner"}
	}
	start := time.Now()

	path, err := c.Runner.LookPath(c.FFmpeg)
	if err != nil {
		return ComponentStatus{Status: StatusDegraded, Error: c.FFmpeg + " not found on PATH"}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := c.Runner.Output(ctx, path, "-version")
	if err != nil {
		return ComponentStatus{Status: StatusDegraded, Latency: time.Since(start).Milliseconds(), Error: err.Error()}
	}
	version, _, _ := strings.Cut(string(out), "\n")
	return ComponentStatus{
		Status:  StatusOK,
		Latency: time.Since(start).Milliseconds(),
		Detail:  strings.TrimSpace(version),
	}
}

func (c *Checker) checkCamera(context.Context) ComponentStatus {
	if c.CameraDevice == "" {
		return ComponentStatus{Status: StatusDegraded, Error: "no camera device configured"}
	}
	if _, err := os.Stat(c.CameraDevice); err != nil {
		return ComponentStatus{Status: StatusDegraded, Error: err.Error()}
	}
	return ComponentStatus{Status: StatusOK, Detail: c.CameraDevice}
}

func (c *Checker) checkLevels(context.Context) ComponentStatus {
	catalog, err := levels.Load(c.LevelsFile)
	if err != nil {
		return ComponentStatus{Status: StatusError, Error: err.Error()}
	}
	source := "built-in"
	if c.LevelsFile != "" {
		source = c.LevelsFile
	}
	return ComponentStatus{Status: StatusOK, Detail: fmt.Sprintf("%d levels (%s)", len(catalog.Levels), source)}
}

func (c *Checker) checkLogFile(context.Context) ComponentStatus {
	if c.LogFile == "" {
		return ComponentStatus{Status: StatusDegraded, Error: "no log file configured"}
	}
	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0755); err != nil {
		return ComponentStatus{Status: StatusDegraded, Error: err.Error()}
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return ComponentStatus{Status: StatusDegraded, Error: err.Error()}
	}
	f.Close()
	return ComponentStatus{Status: StatusOK, Detail: c.LogFile}
}

// IsHealthy reports whether the chat screen can run at all.
func (r *Report) IsHealthy() bool {
	return r.Status != "unhealthy"
}

// Summary returns a human-readable summary.
func (r *Report) Summary() string {
	var sb strings.Builder

	sb.WriteString("ROOMCHAT ENVIRONMENT CHECK\n")
	sb.WriteString(strings.Repeat("─", 40) + "\n")

	ttyStatus := "No (use the one-shot commands)"
	if r.HasTTY {
		ttyStatus = "Yes (chat screen available)"
	}
	sb.WriteString(fmt.Sprintf("%-12s %s\n", "TTY:", ttyStatus))

	names := make([]string, 0, len(r.Components))
	for name := range r.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := r.Components[name]
		line := fmt.Sprintf("%-12s %s %s", name+":", statusIcon(c.Status), c.Status)
		if c.Latency > 0 {
			line += fmt.Sprintf(" (%dms)", c.Latency)
		}
		if c.Detail != "" {
			line += "  " + c.Detail
		}
		if c.Error != "" {
			line += "  " + c.Error
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n")
	switch r.Status {
	case "healthy":
		sb.WriteString("Status: HEALTHY\n")
	case "degraded":
		sb.WriteString("Status: DEGRADED - camera features may be unavailable\n")
	default:
		sb.WriteString("Status: UNHEALTHY - fix errors above\n")
	}
	return sb.String()
}

// QuickCheck returns a one-line status suitable for non-verbose output.
func (r *Report) QuickCheck() string {
	var bad []string
	for name, c := range r.Components {
		if c.Status != StatusOK {
			bad = append(bad, name+":"+c.Status)
		}
	}
	if len(bad) == 0 {
		return r.Status
	}
	sort.Strings(bad)
	return r.Status + " " + strings.Join(bad, " ")
}

func statusIcon(status string) string {
	switch status {
	case StatusOK:
		return "✓"
	case StatusDegraded:
		return "⚠"
	default:
		return "✗"
	}
}
