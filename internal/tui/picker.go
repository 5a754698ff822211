package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/roomchat/internal/gallery"
)

// imageItem implements list.Item for the picker
type imageItem struct {
	gallery.Item
}

func (i imageItem) Title() string       { return "🖼  " + i.RelPath }
func (i imageItem) Description() string { return fmt.Sprintf("%d KB", (i.Size+1023)/1024) }
func (i imageItem) FilterValue() string { return i.RelPath }

type pickerLoadedMsg struct {
	items gallery.Items
	err   error
}

// ImagePicker chooses an image file to send.
type ImagePicker struct {
	list   list.Model
	query  textinput.Model
	items  gallery.Items
	root   string
	width  int
	height int
}

// NewImagePicker creates a picker rooted at root.
func NewImagePicker(root string, width, height int) *ImagePicker {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("205")).
		BorderForeground(lipgloss.Color("205"))

	l := list.New([]list.Item{}, delegate, width, height)
	l.Title = "Send an image (" + root + ")"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	q := textinput.New()
	q.Placeholder = "filter..."
	q.Prompt = "› "
	q.Focus()

	return &ImagePicker{
		list:   l,
		query:  q,
		root:   root,
		width:  width,
		height: height,
	}
}

// Load scans the picker root in the background.
func (p *ImagePicker) Load() tea.Cmd {
	root := p.root
	return func() tea.Msg {
		items, err := gallery.Scan(root)
		return pickerLoadedMsg{items: items, err: err}
	}
}

// SetItems replaces the candidates and reapplies the filter.
func (p *ImagePicker) SetItems(items gallery.Items) {
	p.items = items
	p.updateList()
}

func (p *ImagePicker) updateList() {
	matches := gallery.Filter(p.items, p.query.Value())
	listItems := make([]list.Item, 0, len(matches))
	for _, it := range matches {
		listItems = append(listItems, imageItem{it})
	}
	p.list.SetItems(listItems)
	p.list.ResetSelected()
}

// Update routes navigation keys to the list and everything else to the
// filter input.
func (p *ImagePicker) Update(msg tea.Msg) (*ImagePicker, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "down", "pgup", "pgdown", "ctrl+p", "ctrl+n":
			var cmd tea.Cmd
			p.list, cmd = p.list.Update(msg)
			return p, cmd
		}
	}

	before := p.query.Value()
	var cmd tea.Cmd
	p.query, cmd = p.query.Update(msg)
	if p.query.Value() != before {
		p.updateList()
	}
	return p, cmd
}

// View renders the picker
func (p *ImagePicker) View() string {
	if len(p.items) == 0 {
		return p.query.View() + "\n" + faintStyle.Render("No images found under "+p.root)
	}
	return p.query.View() + "\n" + p.list.View()
}

// SelectedItem returns the absolute path of the highlighted image.
func (p *ImagePicker) SelectedItem() (string, bool) {
	item, ok := p.list.SelectedItem().(imageItem)
	if !ok {
		return "", false
	}
	return item.Path, true
}

// SetSize updates the picker dimensions
func (p *ImagePicker) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.list.SetSize(width, height)
}

func pickerHeight(viewportHeight int) int {
	h := viewportHeight / 2
	if h < 5 {
		h = 5
	}
	return h
}

func (m ChatModel) openPicker() (tea.Model, tea.Cmd) {
	if m.pending() {
		return m, nil
	}
	m.mode = modePicker
	if m.picker == nil {
		width := m.width - 4
		if width < 20 {
			width = 40
		}
		m.picker = NewImagePicker(m.galleryRoot, width, pickerHeight(m.viewport.Height))
	}
	return m, m.picker.Load()
}

func (m ChatModel) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			m.mode = modeChat
			return m, nil

		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			m.mode = modeChat
			if path, ok := m.picker.SelectedItem(); ok {
				return m, sendImagePath(m.shared.ctx, m.ctrl, path)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}
