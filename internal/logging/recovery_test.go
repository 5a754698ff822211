package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestRecoveryHandler_Wrap(t *testing.T) {
	handler := NewRecoveryHandler("test-component")

	executed := false
	handler.Wrap(func() {
		executed = true
	})

	if !executed {
		t.Error("function was not executed")
	}
}

func TestRecoveryHandler_WrapPanic(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelInfo, &buf)
	defer Configure(LevelInfo, os.Stderr)

	handler := NewRecoveryHandler("test-component")

	var capturedErr interface{}
	var capturedStack string

	handler.OnPanic = func(err interface{}, stack string) {
		capturedErr = err
		capturedStack = stack
	}

	handler.Wrap(func() {
		panic("test panic")
	})

	if capturedErr != "test panic" {
		t.Errorf("expected 'test panic', got %v", capturedErr)
	}

	if !strings.Contains(capturedStack, "TestRecoveryHandler_WrapPanic") {
		t.Error("stack trace should contain test function name")
	}

	if !strings.Contains(buf.String(), "panic_recovered") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestRecoveryHandler_WrapError(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelInfo, &buf)
	defer Configure(LevelInfo, os.Stderr)

	handler := NewRecoveryHandler("worker")

	want := errors.New("plain")
	if err := handler.WrapError(func() error { return want }); err != want {
		t.Errorf("expected passthrough error, got %v", err)
	}

	err := handler.WrapError(func() error { panic("kaboom") })
	if err == nil || !strings.Contains(err.Error(), "panic in worker: kaboom") {
		t.Errorf("expected panic error, got %v", err)
	}
}

func TestSafeGo(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelInfo, &buf)
	defer Configure(LevelInfo, os.Stderr)

	done := make(chan struct{})
	SafeGo("bg", func() {
		defer close(done)
		panic("in goroutine")
	})
	<-done
}
