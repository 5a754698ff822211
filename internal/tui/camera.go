package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/roomchat/internal/camera"
	"github.com/joss/roomchat/internal/render"
)

func (m ChatModel) openCamera() (tea.Model, tea.Cmd) {
	if m.pending() {
		return m, nil
	}
	if m.cam == nil {
		m.showAlert("No camera is configured. Set ROOMCHAT_CAMERA_DEVICE to a video device.")
		return m, nil
	}
	m.mode = modeCamera
	m.camFrame = ""
	return m, startCamera(m.shared.ctx, m.cam)
}

func (m ChatModel) updateCamera(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		m.cam.Cancel()
		m.mode = modeChat
		m.camFrame = ""
		return m, nil

	case " ", "enter":
		if m.cam.State() != camera.StatePreviewing {
			return m, nil
		}
		return m, captureFrame(m.shared.ctx, m.cam)
	}
	return m, nil
}

func (m ChatModel) handleCameraStarted(msg cameraStartMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, camera.ErrCancelled):
		return m, nil
	case msg.err != nil:
		m.camFrame = ""
		m.showAlert("Unable to access the camera. Please check permissions.\n\n" + msg.err.Error())
		return m, nil
	}
	if m.mode != modeCamera {
		// The modal was closed while the device was opening.
		m.cam.Cancel()
		return m, nil
	}
	return m.handleCameraFrame()
}

func (m ChatModel) handleCameraFrame() (tea.Model, tea.Cmd) {
	if m.mode != modeCamera || m.cam.State() != camera.StatePreviewing {
		return m, nil
	}
	if frame, err := m.cam.Frame(); err == nil {
		m.camFrame = render.ThumbnailImage(frame, cameraCols, cameraRows)
	}
	return m, frameTick()
}

func (m ChatModel) handleCameraShot(msg cameraShotMsg) (tea.Model, tea.Cmd) {
	m.camFrame = ""
	if msg.err != nil {
		m.showAlert("Failed to capture photo: " + msg.err.Error())
		return m, nil
	}
	m.mode = modeChat
	return m, sendImage(m.shared.ctx, m.ctrl, msg.file)
}

func startCamera(ctx context.Context, cam *camera.Camera) tea.Cmd {
	return func() tea.Msg {
		return cameraStartMsg{err: cam.Start(ctx)}
	}
}

func captureFrame(ctx context.Context, cam *camera.Camera) tea.Cmd {
	return func() tea.Msg {
		file, err := cam.Capture(ctx)
		return cameraShotMsg{file: file, err: err}
	}
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return cameraFrameMsg(t)
	})
}
