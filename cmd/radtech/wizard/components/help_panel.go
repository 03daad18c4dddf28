package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/help"
)

var (
	helpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Width(60)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	helpDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	helpKeysStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("109")).
			Italic(true)

	helpNoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))
)

// HelpPanel displays contextual help for the focused field, plus an
// optional note about the value currently chosen in it.
type HelpPanel struct {
	currentField string
	note         string
	width        int
	height       int
}

// NewHelpPanel creates a new help panel
func NewHelpPanel() *HelpPanel {
	return &HelpPanel{
		width:  60,
		height: 10,
	}
}

// SetField updates which field's help to display. Moving to another field
// clears the note.
func (h *HelpPanel) SetField(field string) {
	if field != h.currentField {
		h.note = ""
	}
	h.currentField = field
}

// SetNote describes the value selected in the current field, such as the
// full name of a projection.
func (h *HelpPanel) SetNote(note string) {
	h.note = note
}

// Field returns the field currently described.
func (h *HelpPanel) Field() string {
	return h.currentField
}

// SetSize updates panel dimensions
func (h *HelpPanel) SetSize(width, height int) {
	if width < 24 {
		width = 24
	}
	h.width = width
	h.height = height
}

// View renders the help panel
func (h *HelpPanel) View() string {
	style := helpPanelStyle.Width(h.width - 4)

	text, ok := help.Texts[h.currentField]
	if !ok {
		return style.Render("Select a field to see help")
	}

	var sb strings.Builder
	sb.WriteString(helpTitleStyle.Render(text.Title))
	sb.WriteString("\n\n")
	sb.WriteString(helpDescStyle.Render(text.Description))
	sb.WriteString("\n\n")
	sb.WriteString(helpDetailStyle.Render(text.Details))
	if text.Keys != "" {
		sb.WriteString("\n\n")
		sb.WriteString(helpKeysStyle.Render("CLI: " + text.Keys))
	}
	if h.note != "" {
		sb.WriteString("\n\n")
		sb.WriteString(helpNoteStyle.Render(h.note))
	}

	return style.Render(sb.String())
}
