package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/components"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/types"
	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/protocol"
)

// SelectionScreen collects age, body type and projection, and previews the
// derived technique as the fields change.
type SelectionScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	config    *types.SelectionConfig
	engine    *engine.Engine
	proto     *protocol.Protocol
	width     int
	height    int
	done      bool
	cancelled bool
}

// NewSelectionScreen creates the selection screen over config.
func NewSelectionScreen(config *types.SelectionConfig, e *engine.Engine) *SelectionScreen {
	if config.Age == "" {
		config.Age = string(protocol.Newborn)
	}
	if config.Region == "" {
		config.Region = string(protocol.Chest)
	}
	if config.RegionGroup == "" {
		config.RegionGroup = string(protocol.GroupOf(protocol.Region(config.Region)))
	}

	s := &SelectionScreen{
		helpPanel: components.NewHelpPanel(),
		config:    config,
		engine:    e,
		proto:     e.Protocol(),
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("age").
				Title("Age").
				Options(ageOptions()...).
				Value(&config.Age),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("body_type").
				Title("Body Type").
				Options(bodyTypeOptions()...).
				Value(&config.BodyType),
		).WithHideFunc(func() bool {
			return config.Age != string(protocol.Adult)
		}),
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("region_group").
				Title("Anatomical Group").
				Options(groupOptions()...).
				Value(&config.RegionGroup),

			huh.NewSelect[string]().
				Key("region").
				Title("Projection").
				OptionsFunc(func() []huh.Option[string] {
					return regionOptions(e.Protocol(), protocol.RegionGroup(config.RegionGroup))
				}, &config.RegionGroup).
				Value(&config.Region),

			huh.NewInput().
				Key("equipment_constant").
				Title("Equipment Constant").
				Placeholder(fmt.Sprintf("default %g", e.Protocol().DefaultEquipmentConstant)).
				Value(&config.EquipmentConstant).
				Validate(validateOptionalNumber),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

func ageOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, a := range protocol.AllAgeBrackets() {
		opts = append(opts, huh.NewOption(a.Label(), string(a)))
	}
	return opts
}

func bodyTypeOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, b := range protocol.AllBodyTypes() {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s - %s", strings.ToUpper(string(b)), b.Label()), string(b)))
	}
	return opts
}

func groupOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, g := range protocol.AllRegionGroups() {
		opts = append(opts, huh.NewOption(g.Label(), string(g)))
	}
	return opts
}

func regionOptions(p *protocol.Protocol, g protocol.RegionGroup) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, r := range g.Regions() {
		label := string(r)
		if row, err := p.Region(r); err == nil && row.Description != "" {
			label = row.Description
		}
		opts = append(opts, huh.NewOption(label, string(r)))
	}
	return opts
}

func validateOptionalNumber(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := engine.ParseNumber("equipment constant", s); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}

// Init implements tea.Model
func (s *SelectionScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SelectionScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.helpPanel.SetSize(msg.Width/2, msg.Height/2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
		s.helpPanel.SetNote(s.fieldNote(focused.GetKey()))
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
		s.syncConfigFromForm()
	}

	return s, cmd
}

// fieldNote describes the value chosen in the named field.
func (s *SelectionScreen) fieldNote(key string) string {
	switch key {
	case "region":
		row, err := s.proto.Region(protocol.Region(s.config.Region))
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s (%s, SID %g cm)", row.Description, row.Equipment.Description(), row.SIDCM)
	case "body_type":
		if s.config.BodyType == "" {
			return ""
		}
		return "Selected: " + protocol.BodyType(s.config.BodyType).Label()
	}
	return ""
}

// syncConfigFromForm drops values the form leaves stale: a body type for a
// child and a projection outside the chosen group.
func (s *SelectionScreen) syncConfigFromForm() {
	if s.config.Age != string(protocol.Adult) {
		s.config.BodyType = ""
	}
	g := protocol.RegionGroup(s.config.RegionGroup)
	if protocol.GroupOf(protocol.Region(s.config.Region)) != g {
		s.config.Region = string(g.First())
	}
	s.config.EquipmentConstant = strings.TrimSpace(s.config.EquipmentConstant)
}

// Preview renders the technique for the current field values.
func (s *SelectionScreen) Preview() string {
	sel := s.config.Selection()
	var opts []engine.DeriveOption
	if c := s.config.Constant(); c != nil {
		opts = append(opts, engine.WithEquipmentConstant(*c))
	}
	res, err := s.engine.Derive(sel, opts...)
	d := s.engine.Format(res, err)
	return TechniqueTable(d)
}

// TechniqueTable renders the display fields as aligned rows.
func TechniqueTable(d engine.Display) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		components.Row("kV", d.KV),
		components.Row("mA", d.MA),
		components.Row("mAs", d.MAs),
		components.Row("Time (s)", d.Time),
		components.Row("Equipment", d.Equipment),
	)
}

// View implements tea.Model
func (s *SelectionScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("RADTECH WIZARD - Patient and Projection")
	subtitle := components.SubtitleStyle.Render("Protocol: " + s.engine.Protocol().Label())

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		s.form.View(),
		"",
		components.BoxStyle.Render(s.Preview()),
		"",
		s.helpPanel.View(),
		"",
		"Tab: Next field | Enter: Submit | Esc: Cancel",
	)
}

// Done returns true if the form was completed
func (s *SelectionScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *SelectionScreen) Cancelled() bool {
	return s.cancelled
}

// Config returns the edited selection
func (s *SelectionScreen) Config() *types.SelectionConfig {
	return s.config
}
