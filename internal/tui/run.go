package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/roomchat/internal/logging"
)

// Run starts the chat screen and blocks until the player quits or ctx is
// cancelled. Controller updates made off the UI goroutine are forwarded to
// the program as messages.
func Run(ctx context.Context, opts Options) error {
	log := logging.New("tui")

	model := NewChatModel(opts)
	model.shared.ctx = ctx

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	model.shared.program = p

	opts.Controller.Subscribe(func() {
		p.Send(timelineChangedMsg{})
	})

	log.Info("started", map[string]interface{}{"session": opts.Controller.ID()})
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	if opts.Camera != nil {
		opts.Camera.Close()
	}
	log.Info("stopped", nil)
	return err
}
