package engine

import (
	"math"

	"github.com/mrsinham/radtech/internal/protocol"
)

// Strategy derives a technique from a resolved selection. The set of
// strategies is closed: TableComposition and ThicknessMaron.
type Strategy interface {
	// Kind returns the protocol strategy key.
	Kind() protocol.StrategyKind

	// Compute derives the result. sel only holds keys present in p.
	Compute(p *protocol.Protocol, sel Selection, equipmentConstant float64) Result

	sealed()
}

// StrategyFor returns the strategy for a protocol strategy key.
func StrategyFor(kind protocol.StrategyKind) Strategy {
	switch kind {
	case protocol.ThicknessMaron:
		return ThicknessMaron{}
	case protocol.TableComposition:
		fallthrough
	default:
		return TableComposition{}
	}
}

// TableComposition composes kV from a fixed reference, the region modifier
// and the age delta; mA comes from the age row and time from the region row.
// Adults get the body type kV delta and time multiplier, and adult chest
// projections use the dedicated chest table.
type TableComposition struct{}

func (TableComposition) Kind() protocol.StrategyKind { return protocol.TableComposition }

func (TableComposition) sealed() {}

func (TableComposition) Compute(p *protocol.Protocol, sel Selection, _ float64) Result {
	region := p.Regions[sel.Region]

	if sel.IsAdult() && p.IsChestRegion(sel.Region) {
		chest := p.Chest.Rows[sel.BodyType]
		return Result{
			KV:            chest.KV,
			MA:            chest.MA,
			Time:          chest.Time,
			MAs:           chest.MAs,
			Equipment:     region.Equipment,
			Strategy:      protocol.TableComposition,
			ChestProtocol: true,
		}
	}

	age := p.Ages[sel.Age]
	raw := technique{
		kv:   p.ReferenceKV + region.KVModifier + (age.KV - p.ReferenceKV),
		ma:   age.MA,
		time: region.BaseTime,
	}
	if sel.IsAdult() {
		body := p.Bodies[sel.BodyType]
		raw.kv += body.KVDelta
		raw.time *= body.TimeMultiplier
	}

	kv, ma, time, mas := applyLimits(p, raw)
	return Result{
		KV:        kv,
		MA:        ma,
		Time:      time,
		MAs:       mas,
		Equipment: region.Equipment,
		Strategy:  protocol.TableComposition,
	}
}

// ThicknessMaron estimates patient thickness, sets kV from thickness and the
// equipment constant, and derives mAs from the region's structure factor.
type ThicknessMaron struct{}

func (ThicknessMaron) Kind() protocol.StrategyKind { return protocol.ThicknessMaron }

func (ThicknessMaron) sealed() {}

func (ThicknessMaron) Compute(p *protocol.Protocol, sel Selection, equipmentConstant float64) Result {
	region := p.Regions[sel.Region]
	class := p.Classes[region.Structure]

	thickness := EstimateThickness(p, sel)
	kvRaw := 2*thickness + equipmentConstant
	masRaw := kvRaw * class.MaronFactor
	t := p.TimeForThickness(thickness)

	kv, ma, time, mas := applyLimits(p, technique{kv: kvRaw, ma: masRaw / t, time: t})
	return Result{
		KV:          kv,
		MA:          ma,
		Time:        time,
		MAs:         mas,
		Equipment:   region.Equipment,
		Strategy:    protocol.ThicknessMaron,
		ThicknessCM: thickness,
	}
}

// EstimateThickness sums the age base, the adult body type delta and the
// region delta, with the protocol minimum. sel must be resolved.
func EstimateThickness(p *protocol.Protocol, sel Selection) float64 {
	cm := p.Ages[sel.Age].ThicknessCM + p.Regions[sel.Region].ThicknessDeltaCM
	if sel.IsAdult() {
		cm += p.Bodies[sel.BodyType].ThicknessDeltaCM
	}
	return math.Max(cm, p.Limits.ThicknessMin)
}
