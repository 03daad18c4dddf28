// Package export renders a derived technique as a printable HTML sheet or
// as a DICOM DX record carrying the exposure parameters.
package export

import (
	"fmt"
	"time"

	"github.com/mrsinham/radtech/internal/engine"
)

// TechniqueSheet is everything an export needs about one derivation.
type TechniqueSheet struct {
	ProtocolName    string
	ProtocolVersion string

	Selection         engine.Selection
	AgeLabel          string
	BodyTypeLabel     string
	RegionLabel       string
	BodyPart          string
	ViewPosition      string
	SIDCM             float64
	EquipmentConstant float64

	Result  engine.Result
	Display engine.Display

	GeneratedAt time.Time
	Tags        ParsedTags
}

// NewSheet derives sel with e and assembles the sheet. Incomplete
// selections are rejected; exports never carry placeholders.
func NewSheet(e *engine.Engine, sel engine.Selection, equipmentConstant *float64, now time.Time) (*TechniqueSheet, error) {
	p := e.Protocol()

	var opts []engine.DeriveOption
	constant := p.DefaultEquipmentConstant
	if equipmentConstant != nil {
		opts = append(opts, engine.WithEquipmentConstant(*equipmentConstant))
		constant = *equipmentConstant
	}
	res, err := e.Derive(sel, opts...)
	if err != nil {
		return nil, fmt.Errorf("derive technique: %w", err)
	}

	region, _ := p.Region(sel.Region)
	regionKey := sel.Region
	if !regionKey.IsValid() {
		regionKey = p.Fallback.Region
	}

	s := &TechniqueSheet{
		ProtocolName:      p.Name,
		ProtocolVersion:   p.Version,
		Selection:         sel,
		AgeLabel:          sel.Age.Label(),
		RegionLabel:       region.Description,
		BodyPart:          region.BodyPart,
		ViewPosition:      regionKey.ViewPosition(),
		SIDCM:             region.SIDCM,
		EquipmentConstant: constant,
		Result:            res,
		Display:           e.Format(res, nil),
		GeneratedAt:       now,
		Tags:              ParsedTags{},
	}
	if sel.IsAdult() {
		s.BodyTypeLabel = sel.BodyType.Label()
	}
	if s.RegionLabel == "" {
		s.RegionLabel = string(sel.Region)
	}
	return s, nil
}

// Grid reports whether the equipment class uses an anti-scatter grid.
func (s *TechniqueSheet) Grid() bool {
	return s.Result.Equipment.UsesGrid()
}

// PatientLine summarizes the selection in one line.
func (s *TechniqueSheet) PatientLine() string {
	if s.BodyTypeLabel != "" {
		return s.AgeLabel + ", " + s.BodyTypeLabel
	}
	return s.AgeLabel
}

// Title is the sheet heading.
func (s *TechniqueSheet) Title() string {
	return fmt.Sprintf("%s (%s %s)", s.RegionLabel, s.ProtocolName, s.ProtocolVersion)
}
