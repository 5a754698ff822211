// Package tui provides the Bubble Tea chat screen for a game session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/roomchat/internal/camera"
	"github.com/joss/roomchat/internal/gateway"
	"github.com/joss/roomchat/internal/media"
	"github.com/joss/roomchat/internal/render"
	"github.com/joss/roomchat/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	faintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	inputBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	focusedInputStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205")).
				Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)
)

const (
	thumbCols = 32
	thumbRows = 10

	cameraCols = 48
	cameraRows = 14

	frameInterval = 150 * time.Millisecond
)

type mode int

const (
	modeChat mode = iota
	modePicker
	modeCamera
	modeConfirmReset
	modeAlert
)

// sharedState survives model copies.
type sharedState struct {
	program *tea.Program
	ctx     context.Context
	thumbs  map[string]string
}

// Options configure the chat screen.
type Options struct {
	Controller  *session.Controller
	Camera      *camera.Camera
	GalleryRoot string
	Title       string
}

// ChatModel is the chat screen.
type ChatModel struct {
	ctrl        *session.Controller
	cam         *camera.Camera
	galleryRoot string
	title       string

	ready    bool
	quitting bool
	width    int
	height   int

	// initErr is shown in the status bar when the session could not be
	// created.
	initErr error
	notice  string
	alert   string
	mode    mode

	shared *sharedState

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	picker   *ImagePicker
	md       *render.Markdown

	camFrame string
}

// Messages
type (
	initDoneMsg struct {
		info *gateway.SessionInfo
		err  error
	}
	timelineChangedMsg struct{}

	// exchangeDoneMsg carries failures that did not produce an error turn.
	exchangeDoneMsg struct{ err error }

	itemsMsg struct {
		items []string
		err   error
	}
	resetDoneMsg   struct{ err error }
	statusMsg      struct{ err error }
	cameraStartMsg struct{ err error }
	cameraFrameMsg time.Time
	cameraShotMsg  struct {
		file media.File
		err  error
	}
)

// NewChatModel creates the chat screen.
func NewChatModel(opts Options) ChatModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textarea.New()
	ti.Placeholder = "Type your message... (Enter to send, /help for commands)"
	ti.CharLimit = 2000
	ti.ShowLineNumbers = false
	ti.SetWidth(80)
	ti.SetHeight(2)
	ti.Focus()

	title := opts.Title
	if title == "" {
		title = "Escape Room"
	}

	return ChatModel{
		ctrl:        opts.Controller,
		cam:         opts.Camera,
		galleryRoot: opts.GalleryRoot,
		title:       title,
		shared: &sharedState{
			ctx:    context.Background(),
			thumbs: make(map[string]string),
		},
		spinner: s,
		input:   ti,
		md:      render.NewMarkdown(76),
	}
}

// Init starts session creation.
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textarea.Blink, initSession(m.shared.ctx, m.ctrl))
}

// Update handles messages
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modePicker:
		if _, ok := msg.(tea.KeyMsg); ok {
			return m.updatePicker(msg)
		}
	case modeCamera, modeConfirmReset, modeAlert:
		if key, ok := msg.(tea.KeyMsg); ok {
			return m.updateModal(key)
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case initDoneMsg:
		m.initErr = msg.err
		m.refresh()
		return m, nil

	case timelineChangedMsg:
		m.refresh()
		return m, nil

	case exchangeDoneMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render(msg.err.Error())
		}
		m.refresh()
		return m, nil

	case itemsMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render("Could not load items: " + gateway.Detail(msg.err))
		} else if len(msg.items) == 0 {
			m.notice = "No items available"
		} else {
			m.notice = "Items: " + strings.Join(msg.items, ", ")
		}
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render("Could not refresh status: " + gateway.Detail(msg.err))
		}
		return m, nil

	case resetDoneMsg:
		if msg.err != nil {
			m.showAlert("Failed to reset the game: " + gateway.Detail(msg.err))
		} else {
			m.notice = ""
			clear(m.shared.thumbs)
		}
		m.refresh()
		return m, nil

	case pickerLoadedMsg:
		if m.picker != nil {
			m.picker.SetItems(msg.items)
		}
		if msg.err != nil {
			m.notice = errorStyle.Render("Could not scan images: " + msg.err.Error())
		}
		return m, nil

	case cameraStartMsg:
		return m.handleCameraStarted(msg)

	case cameraFrameMsg:
		return m.handleCameraFrame()

	case cameraShotMsg:
		return m.handleCameraShot(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.pending() && m.ready {
			m.viewport.SetContent(m.renderTimeline())
		}
		return m, cmd
	}

	var cmds []tea.Cmd
	if !m.pending() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m ChatModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		return m.handleEnterKey()

	case "alt+enter", "ctrl+j":
		if !m.pending() {
			m.input.InsertString("\n")
		}
		return m, nil

	case "ctrl+o":
		return m.openPicker()

	case "ctrl+k":
		return m.openCamera()

	case "ctrl+r":
		m.mode = modeConfirmReset
		return m, nil

	case "ctrl+i", "tab":
		return m, listItems(m.shared.ctx, m.ctrl)

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "ctrl+u":
		m.viewport.HalfViewUp()
		return m, nil

	case "ctrl+d":
		m.viewport.HalfViewDown()
		return m, nil
	}

	// Input is locked while the game master is answering.
	if m.pending() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) handleEnterKey() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if m.pending() || text == "" {
		return m, nil
	}

	m.input.Reset()
	m.notice = ""

	if isSlashCommand(text) {
		return executeSlashCommand(m, text)
	}
	return m, sendText(m.shared.ctx, m.ctrl, text)
}

func (m ChatModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	statusHeight := 1
	noticeHeight := 1
	inputHeight := 4
	vpHeight := msg.Height - headerHeight - statusHeight - noticeHeight - inputHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.md.SetWidth(msg.Width - 6)
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.viewport.SetContent(m.renderTimeline())
	m.input.SetWidth(msg.Width - 4)

	if m.picker != nil {
		m.picker.SetSize(msg.Width-4, pickerHeight(vpHeight))
	}
	return m, nil
}

// refresh re-renders the timeline and keeps the newest turn in view.
func (m *ChatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTimeline())
	m.viewport.GotoBottom()
}

func (m ChatModel) pending() bool {
	return m.ctrl != nil && m.ctrl.Pending()
}

func (m *ChatModel) showAlert(text string) {
	m.alert = text
	m.mode = modeAlert
}

func (m ChatModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		if m.cam != nil {
			m.cam.Cancel()
		}
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeAlert:
		switch key {
		case "enter", "esc", " ":
			m.alert = ""
			m.mode = modeChat
		}
		return m, nil

	case modeConfirmReset:
		switch key {
		case "y", "Y", "enter":
			m.mode = modeChat
			return m, resetSession(m.shared.ctx, m.ctrl)
		case "n", "N", "esc":
			m.mode = modeChat
		}
		return m, nil

	case modeCamera:
		return m.updateCamera(key)
	}
	return m, nil
}

// localError drops failures already shown in the timeline as error turns.
func localError(err error) error {
	if errors.Is(err, session.ErrEmptyMessage) ||
		errors.Is(err, session.ErrEmptyItem) ||
		errors.Is(err, session.ErrClosed) ||
		errors.Is(err, media.ErrNotImage) {
		return err
	}
	return nil
}

func initSession(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		info, err := ctrl.Initialize(ctx)
		return initDoneMsg{info: info, err: err}
	}
}

func sendText(ctx context.Context, ctrl *session.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.SendText(ctx, text)
		return exchangeDoneMsg{err: localError(err)}
	}
}

func sendImage(ctx context.Context, ctrl *session.Controller, file media.File) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.SendImage(ctx, file)
		return exchangeDoneMsg{err: localError(err)}
	}
}

func sendImagePath(ctx context.Context, ctrl *session.Controller, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := media.Load(path)
		if err != nil {
			return exchangeDoneMsg{err: fmt.Errorf("open image: %w", err)}
		}
		_, err = ctrl.SendImage(ctx, file)
		return exchangeDoneMsg{err: localError(err)}
	}
}

func submitItem(ctx context.Context, ctrl *session.Controller, name string) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.SubmitItem(ctx, name)
		return exchangeDoneMsg{err: localError(err)}
	}
}

func listItems(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		items, err := ctrl.ListItems(ctx)
		return itemsMsg{items: items, err: err}
	}
}

func refreshStatus(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.RefreshStatus(ctx)
		return statusMsg{err: err}
	}
}

func resetSession(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.Reset(ctx, session.Confirmed)
		return resetDoneMsg{err: err}
	}
}
