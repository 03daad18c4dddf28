package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mrsinham/radtech/internal/protocol"
)

// Placeholder is shown in every output field while the selection is
// incomplete.
const Placeholder = "--"

// Result is a derived exposure technique.
type Result struct {
	KV            float64               `json:"kv"`
	MA            float64               `json:"ma"`
	Time          float64               `json:"time"`
	MAs           float64               `json:"mAs"`
	Equipment     protocol.Equipment    `json:"equipment"`
	Strategy      protocol.StrategyKind `json:"strategy"`
	ThicknessCM   float64               `json:"thicknessCm,omitempty"`
	ChestProtocol bool                  `json:"chestProtocol,omitempty"`
}

// ExposureTimeMS returns the exposure time in whole milliseconds.
func (r Result) ExposureTimeMS() int {
	return int(Round(r.Time*1000, 0))
}

// Display is the formatted output surface.
type Display struct {
	Complete             bool   `json:"complete"`
	KV                   string `json:"kv"`
	MA                   string `json:"ma"`
	MAs                  string `json:"mAs"`
	Time                 string `json:"time"`
	Equipment            string `json:"equipment"`
	EquipmentDescription string `json:"equipmentDescription,omitempty"`
}

// PlaceholderDisplay returns the display for an incomplete selection.
func PlaceholderDisplay() Display {
	return Display{
		KV:        Placeholder,
		MA:        Placeholder,
		MAs:       Placeholder,
		Time:      Placeholder,
		Equipment: Placeholder,
	}
}

// FormatResult renders a derivation outcome. Any error yields placeholders.
func FormatResult(res Result, err error, mode protocol.MAsDisplay) Display {
	if err != nil {
		return PlaceholderDisplay()
	}
	return Display{
		Complete:             true,
		KV:                   fmt.Sprintf("%.1f", res.KV),
		MA:                   fmt.Sprintf("%.1f", res.MA),
		MAs:                  FormatMAs(res.MAs, mode),
		Time:                 fmt.Sprintf("%.4g", res.Time),
		Equipment:            string(res.Equipment),
		EquipmentDescription: res.Equipment.Description(),
	}
}

// FormatMAs renders mAs as a plain number or with three decimals.
func FormatMAs(v float64, mode protocol.MAsDisplay) string {
	if mode == protocol.MAsFixed3 {
		return fmt.Sprintf("%.3f", v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsIncomplete reports whether err means the selection needs more input.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncompleteSelection)
}
