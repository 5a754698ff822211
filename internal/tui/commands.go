package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SlashCommand represents a slash command handler
type SlashCommand struct {
	Name        string
	Usage       string
	Description string
	Handler     func(m ChatModel, args string) (tea.Model, tea.Cmd)
}

// builtinCommands returns all available slash commands
func builtinCommands() map[string]SlashCommand {
	return map[string]SlashCommand{
		"help": {
			Name:        "help",
			Description: "Show available commands",
			Handler:     cmdHelp,
		},
		"items": {
			Name:        "items",
			Description: "List the items you can submit",
			Handler:     cmdItems,
		},
		"item": {
			Name:        "item",
			Usage:       "<name>",
			Description: "Submit an item to the game",
			Handler:     cmdItem,
		},
		"image": {
			Name:        "image",
			Usage:       "<path>",
			Description: "Send an image file",
			Handler:     cmdImage,
		},
		"status": {
			Name:        "status",
			Description: "Refresh the game status",
			Handler:     cmdStatus,
		},
		"reset": {
			Name:        "reset",
			Description: "Restart the game",
			Handler:     cmdReset,
		},
	}
}

// isSlashCommand checks if input starts with /
func isSlashCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// executeSlashCommand parses and runs a slash command
func executeSlashCommand(m ChatModel, input string) (tea.Model, tea.Cmd) {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input[1:], " ", 2)
	name := strings.ToLower(parts[0])
	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	if cmd, ok := builtinCommands()[name]; ok {
		return cmd.Handler(m, args)
	}
	m.notice = errorStyle.Render(fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", name))
	return m, nil
}

func cmdHelp(m ChatModel, _ string) (tea.Model, tea.Cmd) {
	cmds := builtinCommands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, name := range names {
		c := cmds[name]
		usage := "/" + name
		if c.Usage != "" {
			usage += " " + c.Usage
		}
		fmt.Fprintf(&sb, "  %-16s %s\n", usage, c.Description)
	}
	sb.WriteString("\nShortcuts:\n")
	sb.WriteString("  Enter      Send message\n")
	sb.WriteString("  Ctrl+O     Choose an image\n")
	sb.WriteString("  Ctrl+K     Take a photo\n")
	sb.WriteString("  Ctrl+I     List items\n")
	sb.WriteString("  Ctrl+R     Reset the game\n")
	sb.WriteString("  Alt+Enter  Insert newline\n")
	sb.WriteString("  Esc        Close / quit")

	m.showAlert(sb.String())
	return m, nil
}

func cmdItems(m ChatModel, _ string) (tea.Model, tea.Cmd) {
	return m, listItems(m.shared.ctx, m.ctrl)
}

func cmdItem(m ChatModel, args string) (tea.Model, tea.Cmd) {
	if args == "" {
		m.notice = errorStyle.Render("Usage: /item <name>")
		return m, nil
	}
	return m, submitItem(m.shared.ctx, m.ctrl, args)
}

func cmdImage(m ChatModel, args string) (tea.Model, tea.Cmd) {
	if args == "" {
		return m.openPicker()
	}
	return m, sendImagePath(m.shared.ctx, m.ctrl, args)
}

func cmdStatus(m ChatModel, _ string) (tea.Model, tea.Cmd) {
	return m, refreshStatus(m.shared.ctx, m.ctrl)
}

func cmdReset(m ChatModel, _ string) (tea.Model, tea.Cmd) {
	m.mode = modeConfirmReset
	return m, nil
}
