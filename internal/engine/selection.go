package engine

import (
	"strings"

	"github.com/mrsinham/radtech/internal/protocol"
)

// Selection is the patient and projection choice the engine derives from.
// It is a value: the With* methods return modified copies.
type Selection struct {
	Age      protocol.AgeBracket `json:"age" yaml:"age"`
	BodyType protocol.BodyType   `json:"bodyType,omitempty" yaml:"body_type,omitempty"`
	Region   protocol.Region     `json:"region" yaml:"region"`
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{}
}

// DefaultSelection returns the selection shown before any user choice.
func DefaultSelection() Selection {
	return Selection{Age: protocol.Newborn, Region: protocol.Chest}
}

// SelectionFromKeys builds a selection from raw keys. Keys that parse are
// normalized; keys that do not are kept verbatim so the engine substitutes
// the fallback row for them.
func SelectionFromKeys(age, bodyType, region string) Selection {
	var s Selection
	if a, err := protocol.ParseAgeBracket(age); err == nil {
		s.Age = a
	} else {
		s.Age = protocol.AgeBracket(normalizeKey(age))
	}
	if b, err := protocol.ParseBodyType(bodyType); err == nil {
		s.BodyType = b
	} else {
		s.BodyType = protocol.BodyType(normalizeKey(bodyType))
	}
	if r, err := protocol.ParseRegion(region); err == nil {
		s.Region = r
	} else {
		s.Region = protocol.Region(normalizeKey(region))
	}
	return s.Normalized()
}

// WithAge returns a copy with the age set. Leaving the adult bracket clears
// the body type.
func (s Selection) WithAge(a protocol.AgeBracket) Selection {
	s.Age = a
	return s.Normalized()
}

// WithBodyType returns a copy with the body type set. It is ignored unless
// the age is adult.
func (s Selection) WithBodyType(b protocol.BodyType) Selection {
	s.BodyType = b
	return s.Normalized()
}

// WithRegion returns a copy with the region set.
func (s Selection) WithRegion(r protocol.Region) Selection {
	s.Region = r
	return s
}

// WithRegionGroup returns a copy with the first projection of g selected.
func (s Selection) WithRegionGroup(g protocol.RegionGroup) Selection {
	s.Region = g.First()
	return s
}

// ResetRegion returns to the general regions view: the torso group with the
// chest projection.
func (s Selection) ResetRegion() Selection {
	s.Region = protocol.GroupTorso.First()
	return s
}

// Normalized drops the body type when the age is known and not adult.
// Unknown ages keep it, since they fall back to the adult row.
func (s Selection) Normalized() Selection {
	if s.Age != "" && s.Age != protocol.Adult && s.Age.IsValid() {
		s.BodyType = ""
	}
	return s
}

// IsAdult reports whether body type applies.
func (s Selection) IsAdult() bool {
	return s.Age == protocol.Adult
}

// Missing lists the required fields that are unset.
func (s Selection) Missing() []string {
	var missing []string
	if s.Age == "" {
		missing = append(missing, "age")
	}
	if s.Age == protocol.Adult && s.BodyType == "" {
		missing = append(missing, "body type")
	}
	if s.Region == "" {
		missing = append(missing, "region")
	}
	return missing
}

// IsComplete reports whether the engine can derive a result.
func (s Selection) IsComplete() bool {
	return len(s.Missing()) == 0
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
