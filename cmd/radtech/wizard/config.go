package wizard

import (
	"fmt"
	"os"

	"github.com/mrsinham/radtech/cmd/radtech/wizard/types"
	"gopkg.in/yaml.v3"
)

// Config represents a saved wizard session for YAML serialization.
type Config struct {
	Protocol  string              `yaml:"protocol,omitempty"`
	Selection SelectionConfigYAML `yaml:"selection"`
	Output    OutputConfigYAML    `yaml:"output,omitempty"`
	KVMAs     KVMAsConfigYAML     `yaml:"kvmas,omitempty"`
}

// SelectionConfigYAML holds the selection with YAML tags.
type SelectionConfigYAML struct {
	Age               string `yaml:"age"`
	BodyType          string `yaml:"body_type,omitempty"`
	RegionGroup       string `yaml:"region_group,omitempty"`
	Region            string `yaml:"region"`
	EquipmentConstant string `yaml:"equipment_constant,omitempty"`
}

// OutputConfigYAML holds export settings with YAML tags.
type OutputConfigYAML struct {
	PrintPath  string            `yaml:"print,omitempty"`
	DICOMPath  string            `yaml:"dicom,omitempty"`
	CustomTags map[string]string `yaml:"custom_tags,omitempty"`
}

// KVMAsConfigYAML holds the modal calculator fields with YAML tags.
type KVMAsConfigYAML struct {
	EquipmentConstant string `yaml:"equipment_constant,omitempty"`
	Distance          string `yaml:"distance,omitempty"`
	Structure         string `yaml:"structure,omitempty"`
}

// LoadFromYAML reads a saved wizard session.
func LoadFromYAML(path string) (*WizardState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &WizardState{
		Protocol: cfg.Protocol,
		Selection: types.SelectionConfig{
			Age:               cfg.Selection.Age,
			BodyType:          cfg.Selection.BodyType,
			RegionGroup:       cfg.Selection.RegionGroup,
			Region:            cfg.Selection.Region,
			EquipmentConstant: cfg.Selection.EquipmentConstant,
		},
		Output: types.OutputConfig{
			PrintPath:  cfg.Output.PrintPath,
			DICOMPath:  cfg.Output.DICOMPath,
			CustomTags: cfg.Output.CustomTags,
		},
		KVMAs: types.KVMAsConfig{
			EquipmentConstant: cfg.KVMAs.EquipmentConstant,
			Distance:          cfg.KVMAs.Distance,
			Structure:         cfg.KVMAs.Structure,
		},
	}, nil
}

// SaveToYAML writes the wizard session to path.
func SaveToYAML(state *WizardState, path string) error {
	cfg := Config{
		Protocol: state.Protocol,
		Selection: SelectionConfigYAML{
			Age:               state.Selection.Age,
			BodyType:          state.Selection.BodyType,
			RegionGroup:       state.Selection.RegionGroup,
			Region:            state.Selection.Region,
			EquipmentConstant: state.Selection.EquipmentConstant,
		},
		Output: OutputConfigYAML{
			PrintPath:  state.Output.PrintPath,
			DICOMPath:  state.Output.DICOMPath,
			CustomTags: state.Output.CustomTags,
		},
		KVMAs: KVMAsConfigYAML{
			EquipmentConstant: state.KVMAs.EquipmentConstant,
			Distance:          state.KVMAs.Distance,
			Structure:         state.KVMAs.Structure,
		},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
