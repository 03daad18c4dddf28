package wizard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mrsinham/radtech/cmd/radtech/wizard/types"
	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/export"
	"github.com/mrsinham/radtech/internal/protocol"
)

// ToSheet derives the wizard selection and assembles the export sheet with
// the custom tags applied.
func ToSheet(s *WizardState, e *engine.Engine, now time.Time) (*export.TechniqueSheet, error) {
	tags, err := ParseCustomTags(s.Output.CustomTags)
	if err != nil {
		return nil, err
	}
	sheet, err := export.NewSheet(e, s.Selection.Selection(), s.Selection.Constant(), now)
	if err != nil {
		return nil, err
	}
	sheet.Tags = tags
	return sheet, nil
}

// ParseCustomTags validates tag names and returns them keyed by their
// canonical DICOM keyword.
func ParseCustomTags(tags map[string]string) (export.ParsedTags, error) {
	flags := make([]string, 0, len(tags))
	for name, value := range tags {
		flags = append(flags, name+"="+value)
	}
	sort.Strings(flags)
	return export.ParseTagFlags(flags)
}

// FromSelection creates a WizardState from an engine selection, as restored
// from the selection store.
func FromSelection(sel engine.Selection, equipmentConstant *float64) *WizardState {
	state := &WizardState{
		Selection: types.SelectionConfig{
			Age:         string(sel.Age),
			BodyType:    string(sel.BodyType),
			Region:      string(sel.Region),
			RegionGroup: string(protocol.GroupOf(sel.Region)),
		},
	}
	if equipmentConstant != nil {
		state.Selection.EquipmentConstant = fmt.Sprintf("%g", *equipmentConstant)
	}
	return state
}

// CLICommand returns the radtech invocation that reproduces the state.
func CLICommand(s *WizardState) string {
	sel := s.Selection.Selection()
	parts := []string{"radtech"}
	if s.Protocol != "" {
		parts = append(parts, "--protocol", quoteArg(s.Protocol))
	}
	if sel.Age != "" {
		parts = append(parts, "--age", string(sel.Age))
	}
	if sel.BodyType != "" {
		parts = append(parts, "--body-type", string(sel.BodyType))
	}
	if sel.Region != "" {
		parts = append(parts, "--region", string(sel.Region))
	}
	if s.Selection.Constant() != nil {
		parts = append(parts, "--equipment-constant", strings.TrimSpace(s.Selection.EquipmentConstant))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t\"'") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
