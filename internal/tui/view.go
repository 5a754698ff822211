package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joss/roomchat/internal/gateway"
	"github.com/joss/roomchat/internal/render"
	"github.com/joss/roomchat/internal/timeline"
)

// View renders the TUI
func (m ChatModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return fmt.Sprintf("\n  %s Starting...", m.spinner.View())
	}

	var b strings.Builder

	header := titleStyle.Render("🔐 "+m.title) + "  " + faintStyle.Render(m.sessionLabel())
	b.WriteString(header + "\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.renderStatus() + "\n")
	b.WriteString(m.notice + "\n")
	b.WriteString(m.renderInputArea())
	return b.String()
}

func (m ChatModel) sessionLabel() string {
	if m.ctrl == nil {
		return ""
	}
	info := m.ctrl.Info()
	label := info.ID
	if info.Status != "" {
		label += " · " + info.Status
	}
	return label
}

func (m ChatModel) renderInputArea() string {
	width := m.width - 4
	if width < 20 {
		width = 20
	}

	switch m.mode {
	case modePicker:
		if m.picker == nil {
			return ""
		}
		return modalStyle.Width(width).Render(m.picker.View()) + "\n" +
			faintStyle.Render("  type to filter │ ↑↓: navigate │ Enter: send │ Esc: cancel")

	case modeCamera:
		body := m.camFrame
		if body == "" {
			body = fmt.Sprintf("%s Opening camera...", m.spinner.View())
		}
		return modalStyle.Width(width).Render("📷 Camera\n\n"+body) + "\n" +
			faintStyle.Render("  Space: capture │ Esc: cancel")

	case modeConfirmReset:
		return modalStyle.Width(width).Render("Are you sure you want to reset the game? (y/n)")

	case modeAlert:
		return alertStyle.Width(width).Render(m.alert) + "\n" +
			faintStyle.Render("  Enter: dismiss")
	}

	if m.pending() {
		return fmt.Sprintf("  %s Waiting for the game master...", m.spinner.View())
	}
	if m.input.Focused() {
		return focusedInputStyle.Width(width).Render(m.input.View())
	}
	return inputBorderStyle.Width(width).Render(m.input.View())
}

func (m ChatModel) renderStatus() string {
	var parts []string

	if m.initErr != nil {
		parts = append(parts, errorStyle.Render("✗ could not start session: "+gateway.Detail(m.initErr)))
	} else if m.ctrl != nil && m.ctrl.Info().Initialized {
		parts = append(parts, assistantStyle.Render("●")+" connected")
	} else {
		parts = append(parts, m.spinner.View()+" connecting")
	}

	if m.cam != nil {
		parts = append(parts, "camera "+m.cam.State().String())
	}

	parts = append(parts, "Enter: send │ Ctrl+O: image │ Ctrl+K: camera │ Ctrl+R: reset │ /help")

	return statusStyle.Width(m.width).Render(strings.Join(parts, " │ "))
}

func (m ChatModel) renderTimeline() string {
	if m.ctrl == nil {
		return ""
	}
	snap := m.ctrl.Timeline().Snapshot()

	var b strings.Builder
	for i, msg := range snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		st, tracked := snap.States[msg.ID]
		b.WriteString(m.renderMessage(msg, st, tracked))
		b.WriteString("\n")
	}
	if snap.Pending {
		b.WriteString("\n" + faintStyle.Render(m.spinner.View()+" The game master is thinking..."))
	}
	return b.String()
}

func (m ChatModel) renderMessage(msg timeline.Message, st timeline.State, tracked bool) string {
	var b strings.Builder
	stamp := faintStyle.Render(msg.CreatedAt.Format("15:04"))

	switch {
	case msg.Role == timeline.RoleUser:
		marker := ""
		if tracked {
			switch st {
			case timeline.StatePending:
				marker = " " + faintStyle.Render(render.StateIcon(st.String()))
			case timeline.StateFailed:
				marker = " " + errorStyle.Render(render.StateIcon(st.String()))
			}
		}
		b.WriteString(userStyle.Render("You") + " " + stamp + marker + "\n")
		b.WriteString(lipgloss.NewStyle().Width(m.wrapWidth()).Render(msg.Content))

	case msg.Error:
		b.WriteString(errorStyle.Render("⚠ ") + stamp + "\n")
		b.WriteString(errorStyle.Width(m.wrapWidth()).Render(msg.Content))

	default:
		b.WriteString(assistantStyle.Render("Game Master") + " " + stamp + "\n")
		b.WriteString(m.md.Render(msg.Content))
	}

	if msg.HasImage() {
		b.WriteString("\n" + m.renderImage(msg.Image))
	}
	return b.String()
}

// renderImage draws a cached thumbnail of a preview, falling back to its
// name when the bytes cannot be decoded.
func (m ChatModel) renderImage(img *timeline.Image) string {
	caption := faintStyle.Render(img.Name + " · " + img.URL)

	thumb, ok := m.shared.thumbs[img.URL]
	if !ok {
		file, err := m.ctrl.Timeline().Previews().Open(img.URL)
		if err == nil {
			thumb, err = render.Thumbnail(file.Data, thumbCols, thumbRows)
		}
		if err != nil {
			thumb = ""
		}
		m.shared.thumbs[img.URL] = thumb
	}
	if thumb == "" {
		return "🖼  " + caption
	}
	return thumb + "\n" + caption
}

func (m ChatModel) wrapWidth() int {
	if m.width > 8 {
		return m.width - 4
	}
	return 76
}
