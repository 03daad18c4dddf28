package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/components"
	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/export"
)

// ResultAction represents the action selected on the result screen
type ResultAction int

const (
	// ResultActionExport writes the technique sheet and DICOM record
	ResultActionExport ResultAction = iota
	// ResultActionKVMAs opens the modal kV/mAs calculator
	ResultActionKVMAs
	// ResultActionSaveConfig saves the selection to a YAML file
	ResultActionSaveConfig
	// ResultActionNew starts a new selection
	ResultActionNew
	// ResultActionQuit exits the wizard
	ResultActionQuit
)

const (
	actionExport     = "export"
	actionKVMAs      = "kvmas"
	actionSaveConfig = "save_config"
	actionNew        = "new"
	actionQuit       = "quit"
)

var resultTitleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("63")).
	Bold(true)

// ResultScreen shows the derived technique and the follow-up actions.
type ResultScreen struct {
	form      *huh.Form
	sheet     *export.TechniqueSheet
	err       error
	command   string
	message   string
	action    string
	done      bool
	cancelled bool
}

// NewResultScreen creates the result screen. sheet is nil when the
// derivation failed; err then explains why.
func NewResultScreen(sheet *export.TechniqueSheet, err error, command string) *ResultScreen {
	s := &ResultScreen{
		sheet:   sheet,
		err:     err,
		command: command,
		action:  actionNew,
	}

	opts := []huh.Option[string]{}
	if sheet != nil {
		opts = append(opts, huh.NewOption("Export sheet / DICOM", actionExport))
	}
	opts = append(opts,
		huh.NewOption("Modal kV/mAs calculator", actionKVMAs),
		huh.NewOption("Save selection to YAML", actionSaveConfig),
		huh.NewOption("New selection", actionNew),
		huh.NewOption("Quit", actionQuit),
	)
	if sheet != nil {
		s.action = actionExport
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Next").
				Options(opts...).
				Value(&s.action),
		),
	).WithShowHelp(false)

	return s
}

// SetMessage shows a status line under the result, e.g. after an export.
func (s *ResultScreen) SetMessage(msg string) {
	s.message = msg
}

// Init implements tea.Model
func (s *ResultScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *ResultScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		s.cancelled = true
		return s, tea.Quit
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *ResultScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("RADTECH WIZARD - Technique")

	parts := []string{title, components.BoxStyle.Render(s.buildTechnique()), ""}
	if s.command != "" {
		parts = append(parts, resultTitleStyle.Render("Equivalent CLI Command"), s.command, "")
	}
	if s.message != "" {
		parts = append(parts, s.message, "")
	}
	parts = append(parts, s.form.View(), "", "Enter: Select | Ctrl+C: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s *ResultScreen) buildTechnique() string {
	if s.sheet == nil {
		var sb strings.Builder
		sb.WriteString(TechniqueTable(engine.PlaceholderDisplay()))
		if s.err != nil {
			sb.WriteString("\n\n")
			sb.WriteString(components.ErrorStyle.Render(s.err.Error()))
		}
		return sb.String()
	}

	sh := s.sheet
	rows := []string{
		resultTitleStyle.Render(sh.Title()),
		components.SubtitleStyle.Render(sh.PatientLine()),
		TechniqueTable(sh.Display),
		components.Row("", sh.Display.EquipmentDescription),
	}
	if sh.Result.ThicknessCM > 0 {
		rows = append(rows, components.Row("Thickness", fmt.Sprintf("%.0f cm (constant %g)", sh.Result.ThicknessCM, sh.EquipmentConstant)))
	}
	if sh.Result.ChestProtocol {
		rows = append(rows, components.Row("Table", "adult chest protocol"))
	}
	if sh.ViewPosition != "" {
		rows = append(rows, components.Row("View", sh.ViewPosition))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Done returns true once an action was chosen
func (s *ResultScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *ResultScreen) Cancelled() bool {
	return s.cancelled
}

// Action returns the selected action
func (s *ResultScreen) Action() ResultAction {
	switch s.action {
	case actionExport:
		return ResultActionExport
	case actionKVMAs:
		return ResultActionKVMAs
	case actionSaveConfig:
		return ResultActionSaveConfig
	case actionQuit:
		return ResultActionQuit
	default:
		return ResultActionNew
	}
}
