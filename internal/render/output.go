package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/joss/roomchat/internal/levels"
	"github.com/joss/roomchat/internal/session"
	"github.com/joss/roomchat/internal/timeline"
)

// Renderer handles CLI output formatting.
type Renderer struct {
	pretty bool
	md     *Markdown
}

// New creates a new renderer. Pretty output uses colors and renders
// assistant replies as markdown.
func New(pretty bool) *Renderer {
	r := &Renderer{pretty: pretty}
	if pretty {
		r.md = NewMarkdown(80)
	}
	return r
}

// Transcript formats every turn of a snapshot.
func (r *Renderer) Transcript(s timeline.Snapshot) string {
	if len(s.Messages) == 0 {
		return "No messages yet"
	}

	var sb strings.Builder
	for _, m := range s.Messages {
		st, tracked := s.States[m.ID]
		r.formatMessage(&sb, m, st, tracked)
	}
	if s.Pending && r.pretty {
		sb.WriteString(color.HiBlackString("  … waiting for the game master\n"))
	}
	return sb.String()
}

// Message formats a single turn.
func (r *Renderer) Message(m timeline.Message) string {
	var sb strings.Builder
	r.formatMessage(&sb, m, 0, false)
	return sb.String()
}

func (r *Renderer) formatMessage(sb *strings.Builder, m timeline.Message, st timeline.State, tracked bool) {
	timeStr := m.CreatedAt.Format("15:04:05")

	if !r.pretty {
		marker := ""
		if tracked {
			marker = " " + st.String()
		}
		if m.Error {
			marker = " error"
		}
		fmt.Fprintf(sb, "[%s] %s%s: %s\n", timeStr, m.Role, marker, m.Content)
		if m.HasImage() {
			fmt.Fprintf(sb, "    image: %s (%s)\n", m.Image.Name, m.Image.MediaType)
		}
		return
	}

	switch {
	case m.Role == timeline.RoleUser:
		icon := ""
		if tracked {
			icon = stateColor(st)(StateIcon(st.String())) + " "
		}
		fmt.Fprintf(sb, "%s%s %s\n", icon, color.HiBlackString(timeStr), color.CyanString("you: ")+m.Content)
	case m.Error:
		fmt.Fprintf(sb, "%s %s\n", color.HiBlackString(timeStr), color.RedString(m.Content))
	default:
		fmt.Fprintf(sb, "%s %s\n", color.HiBlackString(timeStr), color.GreenString("game master:"))
		sb.WriteString(r.md.Render(m.Content))
		sb.WriteString("\n")
	}
	if m.HasImage() {
		fmt.Fprintf(sb, "    %s %s\n", color.MagentaString("▣"), m.Image.Name)
	}
}

func stateColor(st timeline.State) func(format string, a ...interface{}) string {
	switch st {
	case timeline.StateConfirmed:
		return color.GreenString
	case timeline.StateFailed:
		return color.RedString
	default:
		return color.YellowString
	}
}

// Session formats session metadata.
func (r *Renderer) Session(info session.Info) string {
	var sb strings.Builder

	if !r.pretty {
		fmt.Fprintf(&sb, "session=%s status=%q config=%s items=%d\n",
			info.ID, info.Status, info.ConfigPath, len(info.Items))
		return sb.String()
	}

	sb.WriteString(color.CyanString("Session\n"))
	sb.WriteString(strings.Repeat("─", 40) + "\n")
	fmt.Fprintf(&sb, "  ID:      %s\n", info.ID)
	if info.LevelID != "" {
		fmt.Fprintf(&sb, "  Level:   %s\n", info.LevelID)
	}
	if info.ConfigPath != "" {
		fmt.Fprintf(&sb, "  Config:  %s\n", info.ConfigPath)
	}
	status := info.Status
	if status == "" {
		status = color.HiBlackString("unknown")
	}
	fmt.Fprintf(&sb, "  Status:  %s\n", status)
	if len(info.Items) > 0 {
		fmt.Fprintf(&sb, "  Items:   %s\n", strings.Join(info.Items, ", "))
	}
	return sb.String()
}

// Items formats the items available in a session.
func (r *Renderer) Items(items []string) string {
	if len(items) == 0 {
		return "No items available"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Items\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	}
	for _, it := range items {
		if r.pretty {
			fmt.Fprintf(&sb, "  %s %s\n", color.YellowString("◆"), it)
		} else {
			fmt.Fprintln(&sb, it)
		}
	}
	return sb.String()
}

// Levels formats the level catalog.
func (r *Renderer) Levels(c *levels.Catalog) string {
	if c == nil || len(c.Levels) == 0 {
		return "No levels configured"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Levels\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}
	for _, l := range c.Levels {
		if !r.pretty {
			fmt.Fprintf(&sb, "%s\t%s\t%s\n", l.ID, l.ConfigPath, l.Title)
			continue
		}
		icon := l.Icon
		if icon == "" {
			icon = "•"
		}
		fmt.Fprintf(&sb, "%s %s %s\n", icon, color.YellowString(l.ID), l.Title)
		if l.Description != "" {
			fmt.Fprintf(&sb, "    %s\n", l.Description)
		}
		var meta []string
		if l.Difficulty != "" {
			meta = append(meta, l.Difficulty)
		}
		if l.EstimatedTime != "" {
			meta = append(meta, l.EstimatedTime)
		}
		meta = append(meta, l.ConfigPath)
		fmt.Fprintf(&sb, "    %s\n", color.HiBlackString(strings.Join(meta, " · ")))
	}
	return sb.String()
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
