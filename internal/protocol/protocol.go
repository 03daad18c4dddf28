package protocol

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedKey is wrapped by lookups that substituted the fallback row.
var ErrUnrecognizedKey = errors.New("unrecognized key")

// Protocol is one versioned set of technique tables plus the rules the
// engine applies to them.
type Protocol struct {
	Name        string       `yaml:"name" json:"name"`
	Version     string       `yaml:"version" json:"version"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Strategy    StrategyKind `yaml:"strategy" json:"strategy"`
	MAMode      MAMode       `yaml:"ma_mode" json:"maMode"`
	MAsBasis    MAsBasis     `yaml:"mas_basis" json:"masBasis"`
	MAsDisplay  MAsDisplay   `yaml:"mas_display" json:"masDisplay"`

	// ReferenceKV is the fixed kV that region modifiers and age deltas are
	// applied to.
	ReferenceKV float64 `yaml:"reference_kv" json:"referenceKv"`
	// DefaultEquipmentConstant replaces an unparsable equipment constant.
	DefaultEquipmentConstant float64 `yaml:"default_equipment_constant" json:"defaultEquipmentConstant"`

	Limits   Limits                          `yaml:"limits" json:"limits"`
	Fallback FallbackKeys                    `yaml:"fallback" json:"fallback"`
	Modal    ModalSettings                   `yaml:"modal" json:"modal"`
	Steps    []TimeStep                      `yaml:"time_steps" json:"timeSteps"`
	LastStep float64                         `yaml:"time_beyond_steps" json:"timeBeyondSteps"`
	Ages     map[AgeBracket]AgeRow           `yaml:"ages" json:"ages"`
	Bodies   map[BodyType]BodyTypeRow        `yaml:"body_types" json:"bodyTypes"`
	Chest    ChestTable                      `yaml:"chest" json:"chest"`
	Regions  map[Region]RegionRow            `yaml:"regions" json:"regions"`
	Classes  map[StructureClass]StructureRow `yaml:"structures" json:"structures"`
}

// Limits are the clamp bounds applied to every result.
type Limits struct {
	KVMin        float64 `yaml:"kv_min" json:"kvMin"`
	KVMax        float64 `yaml:"kv_max" json:"kvMax"`
	MAMin        float64 `yaml:"ma_min" json:"maMin"`
	MAMax        float64 `yaml:"ma_max" json:"maMax"`
	BinaryMALow  float64 `yaml:"binary_ma_low" json:"binaryMaLow"`
	BinaryMAHigh float64 `yaml:"binary_ma_high" json:"binaryMaHigh"`
	TimeMin      float64 `yaml:"time_min" json:"timeMin"`
	TimeMax      float64 `yaml:"time_max" json:"timeMax"`
	ThicknessMin float64 `yaml:"thickness_min" json:"thicknessMin"`
}

// FallbackKeys name the rows substituted for unrecognized keys.
type FallbackKeys struct {
	Age      AgeBracket `yaml:"age" json:"age"`
	BodyType BodyType   `yaml:"body_type" json:"bodyType"`
	Region   Region     `yaml:"region" json:"region"`
}

// ModalSettings drive the KV/mAs modal calculator.
type ModalSettings struct {
	Time                float64 `yaml:"time" json:"time"`
	DistanceThresholdCM float64 `yaml:"distance_threshold_cm" json:"distanceThresholdCm"`
	DistanceKVBoost     float64 `yaml:"distance_kv_boost" json:"distanceKvBoost"`
	DefaultMA           float64 `yaml:"default_ma" json:"defaultMa"`
	MAsMin              float64 `yaml:"mas_min" json:"masMin"`
	MAsMax              float64 `yaml:"mas_max" json:"masMax"`
}

// TimeStep maps patient thickness up to MaxThicknessCM (inclusive) to an
// exposure time.
type TimeStep struct {
	MaxThicknessCM float64 `yaml:"max_thickness_cm" json:"maxThicknessCm"`
	Time           float64 `yaml:"time" json:"time"`
}

// AgeRow is the age table entry.
type AgeRow struct {
	KV          float64 `yaml:"kv" json:"kv"`
	MA          float64 `yaml:"ma" json:"ma"`
	ThicknessCM float64 `yaml:"thickness_cm" json:"thicknessCm"`
}

// BodyTypeRow is the adult body habitus modifier.
type BodyTypeRow struct {
	KVDelta          float64 `yaml:"kv_delta" json:"kvDelta"`
	TimeMultiplier   float64 `yaml:"time_multiplier" json:"timeMultiplier"`
	ThicknessDeltaCM float64 `yaml:"thickness_delta_cm" json:"thicknessDeltaCm"`
}

// ChestTable is the dedicated adult chest technique, per body type.
type ChestTable struct {
	Regions []Region              `yaml:"regions" json:"regions"`
	Rows    map[BodyType]ChestRow `yaml:"rows" json:"rows"`
}

// ChestRow is a complete chest technique.
type ChestRow struct {
	KV   float64 `yaml:"kv" json:"kv"`
	MAs  float64 `yaml:"mas" json:"mAs"`
	MA   float64 `yaml:"ma" json:"ma"`
	Time float64 `yaml:"time" json:"time"`
}

// RegionRow is the region/projection table entry.
type RegionRow struct {
	Description      string         `yaml:"description" json:"description"`
	KVModifier       float64        `yaml:"kv_mod" json:"kvMod"`
	BaseTime         float64        `yaml:"base_time" json:"baseTime"`
	Equipment        Equipment      `yaml:"equipment" json:"equipment"`
	SIDCM            float64        `yaml:"sid_cm" json:"sidCm"`
	ThicknessDeltaCM float64        `yaml:"thickness_delta_cm" json:"thicknessDeltaCm"`
	Structure        StructureClass `yaml:"structure" json:"structure"`
	BodyPart         string         `yaml:"body_part" json:"bodyPart"`
}

// StructureRow holds the per-class constants.
type StructureRow struct {
	MaronFactor float64 `yaml:"maron_factor" json:"maronFactor"`
	ModalMA     float64 `yaml:"modal_ma" json:"modalMa"`
}

// Age returns the age row. Unknown brackets yield the fallback row and an
// error wrapping ErrUnrecognizedKey.
func (p *Protocol) Age(a AgeBracket) (AgeRow, error) {
	if row, ok := p.Ages[a]; ok {
		return row, nil
	}
	return p.Ages[p.Fallback.Age], unrecognized("age", string(a), string(p.Fallback.Age))
}

// BodyType returns the body type row with the same fallback rule as Age.
func (p *Protocol) BodyType(b BodyType) (BodyTypeRow, error) {
	if row, ok := p.Bodies[b]; ok {
		return row, nil
	}
	return p.Bodies[p.Fallback.BodyType], unrecognized("body type", string(b), string(p.Fallback.BodyType))
}

// Region returns the region row with the same fallback rule as Age.
func (p *Protocol) Region(r Region) (RegionRow, error) {
	if row, ok := p.Regions[r]; ok {
		return row, nil
	}
	return p.Regions[p.Fallback.Region], unrecognized("region", string(r), string(p.Fallback.Region))
}

// ChestRow returns the adult chest technique for a body type.
func (p *Protocol) ChestRow(b BodyType) (ChestRow, error) {
	if row, ok := p.Chest.Rows[b]; ok {
		return row, nil
	}
	return p.Chest.Rows[p.Fallback.BodyType], unrecognized("body type", string(b), string(p.Fallback.BodyType))
}

// Structure returns the structure class row. Unknown classes return a zero
// row and ErrUnrecognizedKey; callers pick their own default.
func (p *Protocol) Structure(c StructureClass) (StructureRow, error) {
	if row, ok := p.Classes[c]; ok {
		return row, nil
	}
	return StructureRow{}, fmt.Errorf("structure class %q: %w", c, ErrUnrecognizedKey)
}

// IsChestRegion reports whether r triggers the dedicated adult chest table.
func (p *Protocol) IsChestRegion(r Region) bool {
	for _, c := range p.Chest.Regions {
		if c == r {
			return true
		}
	}
	return false
}

// TimeForThickness returns the exposure time step for a thickness. Step
// bounds are inclusive.
func (p *Protocol) TimeForThickness(cm float64) float64 {
	for _, step := range p.Steps {
		if cm <= step.MaxThicknessCM {
			return step.Time
		}
	}
	return p.LastStep
}

// Label returns "name version" for display.
func (p *Protocol) Label() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + " " + p.Version
}

// Clone returns a deep copy so variants never share maps.
func (p *Protocol) Clone() *Protocol {
	c := *p
	c.Steps = append([]TimeStep(nil), p.Steps...)
	c.Ages = cloneMap(p.Ages)
	c.Bodies = cloneMap(p.Bodies)
	c.Regions = cloneMap(p.Regions)
	c.Classes = cloneMap(p.Classes)
	c.Chest.Regions = append([]Region(nil), p.Chest.Regions...)
	c.Chest.Rows = cloneMap(p.Chest.Rows)
	return &c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func unrecognized(field, key, fallback string) error {
	return fmt.Errorf("%s %q (using %q): %w", field, key, fallback, ErrUnrecognizedKey)
}
