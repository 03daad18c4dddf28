package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mrsinham/radtech/internal/protocol"
)

var (
	// ErrIncompleteSelection means a required selection field is unset. The
	// caller shows placeholders instead of numbers.
	ErrIncompleteSelection = errors.New("incomplete selection")

	// ErrInvalidNumericInput means a numeric form field did not parse.
	ErrInvalidNumericInput = errors.New("invalid numeric input")
)

// IncompleteSelectionError lists the unset fields.
type IncompleteSelectionError struct {
	Missing []string
}

func (e *IncompleteSelectionError) Error() string {
	return fmt.Sprintf("incomplete selection: missing %s", strings.Join(e.Missing, ", "))
}

// Is matches ErrIncompleteSelection.
func (e *IncompleteSelectionError) Is(target error) bool {
	return target == ErrIncompleteSelection
}

// InvalidNumericInputError names the field that failed to parse.
type InvalidNumericInputError struct {
	Field string
	Input string
}

func (e *InvalidNumericInputError) Error() string {
	return fmt.Sprintf("invalid numeric input for %s: %q", e.Field, e.Input)
}

// Is matches ErrInvalidNumericInput.
func (e *InvalidNumericInputError) Is(target error) bool {
	return target == ErrInvalidNumericInput
}

// ParseNumber parses a user-entered number. Blank, non-numeric, NaN and
// infinite inputs are rejected.
func ParseNumber(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InvalidNumericInputError{Field: field, Input: raw}
	}
	return v, nil
}

// EquipmentConstant parses the equipment constant field, substituting the
// protocol default when the input is not a number.
func EquipmentConstant(raw string, p *protocol.Protocol) float64 {
	v, err := ParseNumber("equipment constant", raw)
	if err != nil {
		return p.DefaultEquipmentConstant
	}
	return v
}
