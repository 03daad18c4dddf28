package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/components"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/types"
	"github.com/mrsinham/radtech/internal/kvmas"
	"github.com/mrsinham/radtech/internal/protocol"
)

// KVMAsScreen is the modal kV/mAs calculator.
type KVMAsScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	config    *types.KVMAsConfig
	protocol  *protocol.Protocol
	result    *kvmas.Result
	err       error
	done      bool
	cancelled bool
}

// NewKVMAsScreen creates the calculator over config.
func NewKVMAsScreen(config *types.KVMAsConfig, p *protocol.Protocol) *KVMAsScreen {
	if config.Structure == "" {
		config.Structure = string(protocol.Bony)
	}
	s := &KVMAsScreen{
		helpPanel: components.NewHelpPanel(),
		config:    config,
		protocol:  p,
	}
	s.buildForm()
	return s
}

func (s *KVMAsScreen) buildForm() {
	var structures []huh.Option[string]
	for _, c := range protocol.AllStructureClasses() {
		structures = append(structures, huh.NewOption(c.Label(), string(c)))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("kvmas_constant").
				Title("Equipment Constant").
				Value(&s.config.EquipmentConstant),

			huh.NewInput().
				Key("kvmas_distance").
				Title("Distance (cm)").
				Value(&s.config.Distance),

			huh.NewSelect[string]().
				Key("kvmas_structure").
				Title("Structure").
				Options(structures...).
				Value(&s.config.Structure),
		),
	).WithShowHelp(false).WithShowErrors(true)
}

// Init implements tea.Model
func (s *KVMAsScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *KVMAsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			s.done = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.helpPanel.SetSize(msg.Width/2, msg.Height/2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
	}

	if s.form.State == huh.StateCompleted {
		s.Calculate()
		s.buildForm()
		return s, s.form.Init()
	}

	return s, cmd
}

// Calculate runs the calculator on the current field values. Invalid input
// clears the previous result and keeps the form error.
func (s *KVMAsScreen) Calculate() {
	res, err := kvmas.Run(s.protocol, s.config.EquipmentConstant, s.config.Distance, s.config.Structure)
	if err != nil {
		s.result = nil
		s.err = err
		return
	}
	s.result = &res
	s.err = nil
}

// Result returns the last successful calculation, if any.
func (s *KVMAsScreen) Result() *kvmas.Result {
	return s.result
}

// Err returns the last calculation error, if any.
func (s *KVMAsScreen) Err() error {
	return s.err
}

// View implements tea.Model
func (s *KVMAsScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("RADTECH WIZARD - Modal kV/mAs")

	var out string
	switch {
	case s.err != nil:
		out = components.ErrorStyle.Render(kvmas.FormMessage)
	case s.result != nil:
		r := s.result
		out = lipgloss.JoinVertical(lipgloss.Left,
			components.Row("kV", fmt.Sprintf("%.1f", r.KV)),
			components.Row("mA", fmt.Sprintf("%.1f", r.MA)),
			components.Row("Time (s)", fmt.Sprintf("%g", r.Time)),
			components.Row("mAs", fmt.Sprintf("%g", r.MAs)),
		)
	default:
		out = components.SubtitleStyle.Render("Fill in the fields and press Enter")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		s.form.View(),
		"",
		components.BoxStyle.Render(out),
		"",
		s.helpPanel.View(),
		"",
		"Enter: Calculate | Esc: Back",
	)
}

// Done returns true when the user leaves the calculator
func (s *KVMAsScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *KVMAsScreen) Cancelled() bool {
	return s.cancelled
}
