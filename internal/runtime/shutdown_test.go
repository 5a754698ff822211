package runtime

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHandlersLIFO(t *testing.T) {
	m := NewShutdownManager(time.Second)

	var order []string
	m.RegisterSimple("log file", func() { order = append(order, "log file") })
	m.RegisterSimple("previews", func() { order = append(order, "previews") })
	m.RegisterSimple("camera", func() { order = append(order, "camera") })

	require.NoError(t, m.Shutdown())
	assert.Equal(t, []string{"camera", "previews", "log file"}, order)
}

func TestShutdownOnce(t *testing.T) {
	m := NewShutdownManager(time.Second)

	calls := 0
	m.RegisterSimple("count", func() { calls++ })

	m.Shutdown()
	m.Shutdown()
	assert.Equal(t, 1, calls)

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestShutdownCancelsContext(t *testing.T) {
	m := NewShutdownManager(time.Second)
	ctx := m.Context()
	require.NoError(t, ctx.Err())

	m.Shutdown()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := NewShutdownManager(time.Second)
	boom := errors.New("boom")

	ran := false
	m.RegisterSimple("after", func() { ran = true })
	m.Register("failing", func(context.Context) error { return boom })

	err := m.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing: boom")
	assert.True(t, ran)
	assert.Equal(t, err, m.Shutdown())
}

func TestShutdownRecoversPanics(t *testing.T) {
	m := NewShutdownManager(time.Second)

	ran := false
	m.RegisterSimple("first", func() { ran = true })
	m.RegisterSimple("panics", func() { panic("camera gone") })

	err := m.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera gone")
	assert.True(t, ran)
}

func TestShutdownTimeoutSkipsRemaining(t *testing.T) {
	m := NewShutdownManager(20 * time.Millisecond)

	ran := false
	m.RegisterSimple("skipped", func() { ran = true })
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "skipped: skipped")
	assert.False(t, ran)
}

func TestListenForSignals(t *testing.T) {
	m := NewShutdownManager(time.Second)
	stop := m.ListenForSignals()
	defer stop()

	called := make(chan struct{})
	m.RegisterSimple("signal", func() { close(called) })

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown not triggered by SIGTERM")
	}
	m.WaitForShutdown()
}

func TestListenStopIsIdempotent(t *testing.T) {
	m := NewShutdownManager(time.Second)
	stop := m.ListenForSignals()
	stop()
	stop()
	require.NoError(t, m.Shutdown())
}
