// Package kvmas implements the quick kV/mAs calculator: kV from the
// equipment constant and source distance, mA from the anatomical structure.
package kvmas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/protocol"
)

// FormMessage is shown inline when the calculator form does not validate.
const FormMessage = "fill in all fields correctly"

// Input is a validated calculator submission.
type Input struct {
	EquipmentConstant float64                 `json:"equipmentConstant"`
	DistanceCM        float64                 `json:"distanceCm"`
	Structure         protocol.StructureClass `json:"structure"`
}

// Result is the calculator output.
type Result struct {
	KV        float64                 `json:"kv"`
	MA        float64                 `json:"ma"`
	Time      float64                 `json:"time"`
	MAs       float64                 `json:"mAs"`
	Structure protocol.StructureClass `json:"structure"`
	// DistanceBoost is set when the source distance raised kV.
	DistanceBoost bool `json:"distanceBoost,omitempty"`
}

// FormError reports a rejected submission. It matches
// engine.ErrInvalidNumericInput.
type FormError struct {
	Fields []string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("%s (%s)", FormMessage, strings.Join(e.Fields, ", "))
}

// Is matches engine.ErrInvalidNumericInput.
func (e *FormError) Is(target error) bool {
	return target == engine.ErrInvalidNumericInput
}

// ParseInput validates the raw form fields. The structure key is kept even
// when it is not a known class; Calculate then uses the default tube current.
func ParseInput(constant, distance, structure string) (Input, error) {
	var in Input
	var bad []string

	c, err := engine.ParseNumber("equipment constant", constant)
	if err != nil {
		bad = append(bad, "equipment constant")
	}
	d, err := engine.ParseNumber("distance", distance)
	if err != nil {
		bad = append(bad, "distance")
	}
	s := strings.TrimSpace(structure)
	if s == "" {
		bad = append(bad, "structure")
	}
	if len(bad) > 0 {
		return in, &FormError{Fields: bad}
	}

	in.EquipmentConstant = c
	in.DistanceCM = d
	if class, err := protocol.ParseStructureClass(s); err == nil {
		in.Structure = class
	} else {
		in.Structure = protocol.StructureClass(strings.ToLower(s))
	}
	return in, nil
}

// Calculate runs the calculator against the protocol's modal settings.
func Calculate(p *protocol.Protocol, in Input) Result {
	m := p.Modal
	l := p.Limits

	ma := m.DefaultMA
	if row, err := p.Structure(in.Structure); err == nil && row.ModalMA > 0 {
		ma = row.ModalMA
	}

	kv := in.EquipmentConstant
	boost := in.DistanceCM > m.DistanceThresholdCM
	if boost {
		kv += m.DistanceKVBoost
	}
	mas := engine.Round(ma*m.Time, 3)

	return Result{
		KV:            engine.Clamp(kv, l.KVMin, l.KVMax),
		MA:            engine.Clamp(ma, l.MAMin, l.MAMax),
		Time:          m.Time,
		MAs:           engine.Clamp(mas, m.MAsMin, m.MAsMax),
		Structure:     in.Structure,
		DistanceBoost: boost,
	}
}

// Run parses and calculates in one step.
func Run(p *protocol.Protocol, constant, distance, structure string) (Result, error) {
	in, err := ParseInput(constant, distance, structure)
	if err != nil {
		return Result{}, err
	}
	return Calculate(p, in), nil
}

// IsFormError reports whether err is a rejected submission.
func IsFormError(err error) bool {
	var fe *FormError
	return errors.As(err, &fe)
}
