package wizard

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/components"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/screens"
	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/export"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
)

// Phase represents the current phase/screen of the wizard.
type Phase int

const (
	PhaseSelection Phase = iota
	PhaseResult
	PhaseExport
	PhaseKVMAs
	PhaseSaveConfig
)

// Wizard is the main orchestrator for the wizard interface.
type Wizard struct {
	state  *WizardState
	engine *engine.Engine
	store  selection.Store
	now    func() time.Time

	phase Phase

	selectionScreen *screens.SelectionScreen
	resultScreen    *screens.ResultScreen
	kvmasScreen     *screens.KVMAsScreen

	sheet *export.TechniqueSheet

	exportForm *huh.Form
	tagsInput  string

	saveConfigForm *huh.Form
	configPath     string

	width  int
	height int

	cancelled bool
	finished  bool
	err       error
}

// NewWizard creates a new wizard over e. store may be nil; when set, every
// derived selection is saved to it.
func NewWizard(state *WizardState, e *engine.Engine, store selection.Store) *Wizard {
	if state == nil {
		state = &WizardState{}
	}
	if e == nil {
		e = engine.Default()
	}

	w := &Wizard{
		state:  state,
		engine: e,
		store:  store,
		now:    time.Now,
		phase:  PhaseSelection,
	}
	w.selectionScreen = screens.NewSelectionScreen(&w.state.Selection, e)

	return w
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return w.selectionScreen.Init()
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		w.width = wsm.Width
		w.height = wsm.Height
	}

	switch w.phase {
	case PhaseSelection:
		return w.updateSelection(msg)
	case PhaseResult:
		return w.updateResult(msg)
	case PhaseExport:
		return w.updateExport(msg)
	case PhaseKVMAs:
		return w.updateKVMAs(msg)
	case PhaseSaveConfig:
		return w.updateSaveConfig(msg)
	}

	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	switch w.phase {
	case PhaseSelection:
		return w.selectionScreen.View()
	case PhaseResult:
		return w.resultScreen.View()
	case PhaseExport:
		return w.viewForm("Export", w.exportForm, "Enter: Export | Esc: Back")
	case PhaseKVMAs:
		return w.kvmasScreen.View()
	case PhaseSaveConfig:
		return w.viewForm("Save Selection", w.saveConfigForm, "Enter: Save | Esc: Back")
	}

	return ""
}

// updateSelection handles updates in the selection phase.
func (w *Wizard) updateSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.selectionScreen.Update(msg)
	if ss, ok := model.(*screens.SelectionScreen); ok {
		w.selectionScreen = ss
	}

	if w.selectionScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.selectionScreen.Done() {
		return w.transitionToResult("")
	}

	return w, cmd
}

// transitionToResult derives the current selection and shows it.
func (w *Wizard) transitionToResult(message string) (tea.Model, tea.Cmd) {
	w.phase = PhaseResult

	sheet, err := ToSheet(w.state, w.engine, w.now())
	w.sheet = sheet
	if err == nil && w.store != nil {
		rec := selection.FromSelection(w.state.Selection.Selection(), w.now())
		if serr := w.store.Save(context.Background(), rec); serr != nil && message == "" {
			message = fmt.Sprintf("Warning: could not save selection: %v", serr)
		}
	}

	w.resultScreen = screens.NewResultScreen(sheet, err, CLICommand(w.state))
	w.resultScreen.SetMessage(message)
	return w, w.resultScreen.Init()
}

// updateResult handles updates in the result phase.
func (w *Wizard) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.resultScreen.Update(msg)
	if rs, ok := model.(*screens.ResultScreen); ok {
		w.resultScreen = rs
	}

	if w.resultScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if !w.resultScreen.Done() {
		return w, cmd
	}

	switch w.resultScreen.Action() {
	case screens.ResultActionExport:
		return w.transitionToExport()
	case screens.ResultActionKVMAs:
		w.phase = PhaseKVMAs
		w.kvmasScreen = screens.NewKVMAsScreen(&w.state.KVMAs, w.engine.Protocol())
		return w, w.kvmasScreen.Init()
	case screens.ResultActionSaveConfig:
		return w.transitionToSaveConfig()
	case screens.ResultActionQuit:
		w.finished = true
		return w, tea.Quit
	default:
		w.phase = PhaseSelection
		w.selectionScreen = screens.NewSelectionScreen(&w.state.Selection, w.engine)
		return w, w.selectionScreen.Init()
	}
}

// transitionToExport shows the export dialog.
func (w *Wizard) transitionToExport() (tea.Model, tea.Cmd) {
	w.phase = PhaseExport
	if w.state.Output.PrintPath == "" && w.state.Output.DICOMPath == "" {
		base := string(w.state.Selection.Selection().Region)
		w.state.Output.PrintPath = base + ".html"
		w.state.Output.DICOMPath = base + ".dcm"
	}
	w.tagsInput = FormatTags(w.state.Output.CustomTags)

	w.exportForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("print_path").
				Title("Technique sheet (HTML)").
				Value(&w.state.Output.PrintPath),

			huh.NewInput().
				Key("dicom_path").
				Title("DICOM record").
				Value(&w.state.Output.DICOMPath),

			huh.NewInput().
				Key("tags").
				Title("DICOM tags").
				Placeholder("PatientName=Doe^John, InstitutionName=CHU").
				Value(&w.tagsInput).
				Validate(func(s string) error {
					tags, err := ParseTags(s)
					if err != nil {
						return err
					}
					_, err = ParseCustomTags(tags)
					return err
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return w, w.exportForm.Init()
}

// updateExport handles updates in the export phase.
func (w *Wizard) updateExport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			w.cancelled = true
			return w, tea.Quit
		case "esc":
			return w.transitionToResult("")
		}
	}

	form, cmd := w.exportForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.exportForm = f
	}

	if w.exportForm.State == huh.StateCompleted {
		tags, _ := ParseTags(w.tagsInput)
		w.state.Output.CustomTags = tags
		written, err := Export(w.state, w.engine, w.now())
		if err != nil {
			return w.transitionToResult(fmt.Sprintf("Error: %v", err))
		}
		return w.transitionToResult("Written: " + strings.Join(written, ", "))
	}

	return w, cmd
}

// Export writes the files named in the state's output section and returns
// their paths.
func Export(s *WizardState, e *engine.Engine, now time.Time) ([]string, error) {
	sheet, err := ToSheet(s, e, now)
	if err != nil {
		return nil, err
	}

	var written []string
	if p := strings.TrimSpace(s.Output.PrintPath); p != "" {
		if err := export.WriteHTML(p, sheet); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	if p := strings.TrimSpace(s.Output.DICOMPath); p != "" {
		if err := export.WriteDICOM(p, sheet); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}

// ParseTags parses "NAME=VALUE, NAME=VALUE" as typed in the export form.
func ParseTags(s string) (map[string]string, error) {
	tags := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid tag %q: expected NAME=VALUE", part)
		}
		tags[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

// FormatTags is the inverse of ParseTags, with names sorted.
func FormatTags(tags map[string]string) string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + tags[name]
	}
	return strings.Join(parts, ", ")
}

// updateKVMAs handles updates in the calculator phase.
func (w *Wizard) updateKVMAs(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.kvmasScreen.Update(msg)
	if ks, ok := model.(*screens.KVMAsScreen); ok {
		w.kvmasScreen = ks
	}

	if w.kvmasScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}
	if w.kvmasScreen.Done() {
		return w.transitionToResult("")
	}

	return w, cmd
}

// transitionToSaveConfig shows the save config dialog.
func (w *Wizard) transitionToSaveConfig() (tea.Model, tea.Cmd) {
	w.phase = PhaseSaveConfig
	if w.configPath == "" {
		w.configPath = "radtech-selection.yaml"
	}

	w.saveConfigForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("config_path").
				Title("Selection file").
				Value(&w.configPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return w, w.saveConfigForm.Init()
}

// updateSaveConfig handles updates in the save config phase.
func (w *Wizard) updateSaveConfig(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			w.cancelled = true
			return w, tea.Quit
		case "esc":
			return w.transitionToResult("")
		}
	}

	form, cmd := w.saveConfigForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.saveConfigForm = f
	}

	if w.saveConfigForm.State == huh.StateCompleted {
		if err := SaveToYAML(w.state, w.configPath); err != nil {
			return w.transitionToResult(fmt.Sprintf("Error: %v", err))
		}
		return w.transitionToResult("Selection saved to " + w.configPath)
	}

	return w, cmd
}

// viewForm renders a single-form dialog.
func (w *Wizard) viewForm(title string, form *huh.Form, keys string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render(title),
		"",
		form.View(),
		"",
		keys,
	)
}

// Options configures Run.
type Options struct {
	// FromConfig loads a saved session from a YAML file.
	FromConfig string
	// Protocol overrides the session's protocol reference.
	Protocol string
	// Store restores the last selection when no file is given, and
	// receives each derived selection.
	Store selection.Store
}

// Run starts the interactive wizard.
func Run(opts Options) error {
	var state *WizardState

	if opts.FromConfig != "" {
		absPath, err := filepath.Abs(opts.FromConfig)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}

		loaded, err := LoadFromYAML(absPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		state = loaded
	} else if opts.Store != nil {
		sel, ok, err := selection.Restore(context.Background(), opts.Store)
		if err == nil && ok {
			state = FromSelection(sel, nil)
		}
	}
	if state == nil {
		state = &WizardState{}
	}
	if opts.Protocol != "" {
		state.Protocol = opts.Protocol
	}

	p, err := protocol.Resolve(state.Protocol)
	if err != nil {
		return fmt.Errorf("loading protocol: %w", err)
	}
	e, err := engine.New(p)
	if err != nil {
		return fmt.Errorf("loading protocol: %w", err)
	}

	wizard := NewWizard(state, e, opts.Store)
	program := tea.NewProgram(wizard, tea.WithAltScreen())

	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	if w, ok := finalModel.(*Wizard); ok {
		if w.cancelled {
			return nil
		}
		if w.err != nil {
			return w.err
		}
	}

	return nil
}
