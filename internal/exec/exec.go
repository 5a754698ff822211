// Package exec provides a testable command execution abstraction.
package exec

import (
	"bytes"
	"context"
	"fmt"
	osexec "os/exec"
	"strings"
	"sync"
)

// Runner runs short-lived external commands.
type Runner interface {
	// LookPath resolves a binary on PATH.
	LookPath(name string) (string, error)

	// Output runs a command and returns its stdout. Stderr is folded into
	// the error on failure.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// OSRunner implements Runner using os/exec.
type OSRunner struct {
	// Env overrides environment variables (nil = inherit from parent)
	Env []string
}

// NewOSRunner creates a new OS-based command runner.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// LookPath resolves name on PATH.
func (r *OSRunner) LookPath(name string) (string, error) {
	return osexec.LookPath(name)
}

// Output runs a command and returns stdout.
func (r *OSRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// MockRunner implements Runner for testing.
type MockRunner struct {
	mu sync.Mutex

	// Calls records all command invocations
	Calls []MockCall

	// Responses maps a command name to its response
	Responses map[string]MockResponse

	// Missing lists binaries LookPath reports as absent
	Missing map[string]bool
}

// MockCall records a single command invocation.
type MockCall struct {
	Name string
	Args []string
}

// MockResponse defines the response for a mocked command.
type MockResponse struct {
	Stdout []byte
	Err    error
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Responses: make(map[string]MockResponse),
		Missing:   make(map[string]bool),
	}
}

// AddResponse sets the response for a command name.
func (m *MockRunner) AddResponse(name string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[name] = resp
}

func (m *MockRunner) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Missing[name] {
		return "", &osexec.Error{Name: name, Err: osexec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

func (m *MockRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args})
	resp := m.Responses[name]
	return resp.Stdout, resp.Err
}

// Default is the default runner used by helper functions.
var Default Runner = NewOSRunner()

// Output runs a command using the default runner.
func Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return Default.Output(ctx, name, args...)
}
