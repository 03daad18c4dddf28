// Package protocol holds the reference tables the exposure engine derives
// technique from, and the typed keys that index them.
package protocol

import (
	"fmt"
	"strings"
)

// AgeBracket is the patient age class.
type AgeBracket string

const (
	Newborn     AgeBracket = "newborn"
	Child1to5   AgeBracket = "child-1-5"
	Child5to10  AgeBracket = "child-5-10"
	Child10to18 AgeBracket = "child-10-18"
	Adult       AgeBracket = "adult"
)

var legacyAgeKeys = map[string]AgeBracket{
	"1a5":   Child1to5,
	"5a10":  Child5to10,
	"10a18": Child10to18,
}

// AllAgeBrackets returns the age brackets in display order.
func AllAgeBrackets() []AgeBracket {
	return []AgeBracket{Newborn, Child1to5, Child5to10, Child10to18, Adult}
}

// IsValid reports whether a is a known age bracket.
func (a AgeBracket) IsValid() bool {
	for _, v := range AllAgeBrackets() {
		if v == a {
			return true
		}
	}
	return false
}

// String returns the table key.
func (a AgeBracket) String() string {
	return string(a)
}

// Label returns a human readable name.
func (a AgeBracket) Label() string {
	switch a {
	case Newborn:
		return "Newborn"
	case Child1to5:
		return "Child 1-5 years"
	case Child5to10:
		return "Child 5-10 years"
	case Child10to18:
		return "Child 10-18 years"
	case Adult:
		return "Adult"
	default:
		return string(a)
	}
}

// ParseAgeBracket parses an age bracket key. Legacy keys (1a5, 5a10, 10a18)
// are accepted.
func ParseAgeBracket(s string) (AgeBracket, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if legacy, ok := legacyAgeKeys[key]; ok {
		return legacy, nil
	}
	a := AgeBracket(key)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid age bracket: %s (valid: %s)", s, joinKeys(AllAgeBrackets()))
	}
	return a, nil
}

// BodyType is the adult body habitus tier.
type BodyType string

const (
	BodyP  BodyType = "p"
	BodyM  BodyType = "m"
	BodyG  BodyType = "g"
	BodyGG BodyType = "gg"
	BodyXL BodyType = "xl"
)

// AllBodyTypes returns the body types from slimmest to largest.
func AllBodyTypes() []BodyType {
	return []BodyType{BodyP, BodyM, BodyG, BodyGG, BodyXL}
}

// IsValid reports whether b is a known body type.
func (b BodyType) IsValid() bool {
	for _, v := range AllBodyTypes() {
		if v == b {
			return true
		}
	}
	return false
}

func (b BodyType) String() string {
	return string(b)
}

// Label returns a human readable name.
func (b BodyType) Label() string {
	switch b {
	case BodyP:
		return "P - slim"
	case BodyM:
		return "M - medium"
	case BodyG:
		return "G - large"
	case BodyGG:
		return "GG - extra large"
	case BodyXL:
		return "XL - obese"
	default:
		return string(b)
	}
}

// ParseBodyType parses a body type key, case-insensitively.
func ParseBodyType(s string) (BodyType, error) {
	b := BodyType(strings.ToLower(strings.TrimSpace(s)))
	if !b.IsValid() {
		return "", fmt.Errorf("invalid body type: %s (valid: %s)", s, joinKeys(AllBodyTypes()))
	}
	return b, nil
}

// Equipment is the recommended imaging table class.
type Equipment string

const (
	Mesa       Equipment = "MESA"
	MesaGrade  Equipment = "MESA-GRADE"
	MuralBucky Equipment = "MURAL-BUCKY"
)

// AllEquipment returns every equipment class.
func AllEquipment() []Equipment {
	return []Equipment{Mesa, MesaGrade, MuralBucky}
}

// IsValid reports whether e is a known equipment class.
func (e Equipment) IsValid() bool {
	for _, v := range AllEquipment() {
		if v == e {
			return true
		}
	}
	return false
}

func (e Equipment) String() string {
	return string(e)
}

// Description explains the equipment class.
func (e Equipment) Description() string {
	switch e {
	case Mesa:
		return "plain table, no grid"
	case MesaGrade:
		return "table with anti-scatter grid"
	case MuralBucky:
		return "wall-mounted Bucky stand"
	default:
		return ""
	}
}

// UsesGrid reports whether the equipment carries an anti-scatter grid.
func (e Equipment) UsesGrid() bool {
	return e == MesaGrade || e == MuralBucky
}

// StructureClass is the coarse anatomical class used by the Maron formula
// and the KV/mAs modal calculator.
type StructureClass string

const (
	Bony        StructureClass = "bony"
	Extremity   StructureClass = "extremity"
	Respiratory StructureClass = "respiratory"
	Digestive   StructureClass = "digestive"
	Urinary     StructureClass = "urinary"
	SoftTissue  StructureClass = "soft-tissue"
)

var legacyStructureKeys = map[string]StructureClass{
	"osseo":        Bony,
	"extremidade":  Extremity,
	"respiratorio": Respiratory,
	"digestorio":   Digestive,
	"urinario":     Urinary,
	"partes-moles": SoftTissue,
}

// AllStructureClasses returns every structure class.
func AllStructureClasses() []StructureClass {
	return []StructureClass{Bony, Extremity, Respiratory, Digestive, Urinary, SoftTissue}
}

// IsValid reports whether c is a known structure class.
func (c StructureClass) IsValid() bool {
	for _, v := range AllStructureClasses() {
		if v == c {
			return true
		}
	}
	return false
}

func (c StructureClass) String() string {
	return string(c)
}

// Label returns a human readable name.
func (c StructureClass) Label() string {
	switch c {
	case Bony:
		return "Bony"
	case Extremity:
		return "Extremity"
	case Respiratory:
		return "Respiratory"
	case Digestive:
		return "Digestive"
	case Urinary:
		return "Urinary"
	case SoftTissue:
		return "Soft tissue"
	default:
		return string(c)
	}
}

// ParseStructureClass parses a structure class key. Legacy keys are accepted.
func ParseStructureClass(s string) (StructureClass, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if legacy, ok := legacyStructureKeys[key]; ok {
		return legacy, nil
	}
	c := StructureClass(key)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid structure class: %s (valid: %s)", s, joinKeys(AllStructureClasses()))
	}
	return c, nil
}

// StrategyKind selects the derivation strategy of a protocol.
type StrategyKind string

const (
	TableComposition StrategyKind = "table-composition"
	ThicknessMaron   StrategyKind = "thickness-maron"
)

// ParseStrategyKind parses a strategy name.
func ParseStrategyKind(s string) (StrategyKind, error) {
	switch k := StrategyKind(strings.ToLower(strings.TrimSpace(s))); k {
	case TableComposition, ThicknessMaron:
		return k, nil
	default:
		return "", fmt.Errorf("invalid strategy: %s (valid: %s, %s)", s, TableComposition, ThicknessMaron)
	}
}

// MAMode selects how the tube current is clamped.
type MAMode string

const (
	// MARange clamps into [MAMin, MAMax].
	MARange MAMode = "range"
	// MABinary snaps to BinaryMALow or BinaryMAHigh, thresholding at the low value.
	MABinary MAMode = "binary"
)

// MAsBasis selects whether mAs is computed from clamped or raw mA and time.
type MAsBasis string

const (
	MAsClamped   MAsBasis = "clamped"
	MAsUnclamped MAsBasis = "unclamped"
)

// MAsDisplay selects how mAs is rendered.
type MAsDisplay string

const (
	MAsPlain  MAsDisplay = "plain"
	MAsFixed3 MAsDisplay = "fixed3"
)

func joinKeys[T ~string](keys []T) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
