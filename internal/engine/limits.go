package engine

import (
	"math"

	"github.com/mrsinham/radtech/internal/protocol"
)

// Round rounds v to the given number of decimal places, halves away from
// zero.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// technique is an unclamped kV / mA / time triple.
type technique struct {
	kv   float64
	ma   float64
	time float64
}

// applyLimits rounds and clamps a raw technique and computes its mAs
// according to the protocol rules.
func applyLimits(p *protocol.Protocol, raw technique) (kv, ma, time, mas float64) {
	l := p.Limits

	kv = Clamp(Round(raw.kv, 1), l.KVMin, l.KVMax)

	switch p.MAMode {
	case protocol.MABinary:
		if raw.ma <= l.BinaryMALow {
			ma = l.BinaryMALow
		} else {
			ma = l.BinaryMAHigh
		}
	default:
		ma = Clamp(Round(raw.ma, 1), l.MAMin, l.MAMax)
	}

	time = Clamp(Round(raw.time, 4), l.TimeMin, l.TimeMax)

	if p.MAsBasis == protocol.MAsUnclamped {
		mas = Round(raw.ma*raw.time, 3)
	} else {
		mas = Round(ma*time, 3)
	}
	return kv, ma, time, mas
}
