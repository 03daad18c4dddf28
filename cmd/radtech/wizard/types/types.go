// Package types holds the plain values the wizard screens edit.
package types

import (
	"strings"

	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/protocol"
)

// SelectionConfig is the patient and projection choice. Fields hold raw
// keys so huh can bind to them directly.
type SelectionConfig struct {
	Age               string
	BodyType          string
	RegionGroup       string
	Region            string
	EquipmentConstant string
}

// OutputConfig describes the exports written from the result screen.
type OutputConfig struct {
	PrintPath  string
	DICOMPath  string
	CustomTags map[string]string
}

// KVMAsConfig holds the modal calculator fields.
type KVMAsConfig struct {
	EquipmentConstant string
	Distance          string
	Structure         string
}

// Selection converts the raw keys to an engine selection. An empty region
// with a group set means the group's first projection.
func (c SelectionConfig) Selection() engine.Selection {
	region := c.Region
	if region == "" && c.RegionGroup != "" {
		if g, err := protocol.ParseRegionGroup(c.RegionGroup); err == nil {
			region = string(g.First())
		}
	}
	return engine.SelectionFromKeys(c.Age, c.BodyType, region)
}

// Constant returns the equipment constant, or nil when the field is empty
// or not a number.
func (c SelectionConfig) Constant() *float64 {
	if strings.TrimSpace(c.EquipmentConstant) == "" {
		return nil
	}
	v, err := engine.ParseNumber("equipment constant", c.EquipmentConstant)
	if err != nil {
		return nil
	}
	return &v
}
