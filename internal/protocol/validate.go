package protocol

import (
	"errors"
	"fmt"
)

// applyDefaults fills the rule fields an integrator may leave blank.
func (p *Protocol) applyDefaults() {
	if p.Strategy == "" {
		p.Strategy = TableComposition
	}
	if p.MAMode == "" {
		p.MAMode = MARange
	}
	if p.MAsBasis == "" {
		p.MAsBasis = MAsClamped
	}
	if p.MAsDisplay == "" {
		p.MAsDisplay = MAsPlain
	}
	if p.Fallback.Age == "" {
		p.Fallback.Age = Adult
	}
	if p.Fallback.BodyType == "" {
		p.Fallback.BodyType = BodyM
	}
	if p.Fallback.Region == "" {
		p.Fallback.Region = Chest
	}
}

// Validate checks that the tables are total over the typed keys the
// selected strategy reads, and that the limits are coherent. All problems
// are reported together.
func (p *Protocol) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if p.Name == "" {
		add("name is required")
	}
	if _, err := ParseStrategyKind(string(p.Strategy)); err != nil {
		errs = append(errs, err)
	}
	if p.MAMode != MARange && p.MAMode != MABinary {
		add("invalid ma_mode: %s (valid: %s, %s)", p.MAMode, MARange, MABinary)
	}
	if p.MAsBasis != MAsClamped && p.MAsBasis != MAsUnclamped {
		add("invalid mas_basis: %s (valid: %s, %s)", p.MAsBasis, MAsClamped, MAsUnclamped)
	}
	if p.MAsDisplay != MAsPlain && p.MAsDisplay != MAsFixed3 {
		add("invalid mas_display: %s (valid: %s, %s)", p.MAsDisplay, MAsPlain, MAsFixed3)
	}

	l := p.Limits
	if l.KVMin <= 0 || l.KVMin >= l.KVMax {
		add("limits: kv range [%g, %g] is invalid", l.KVMin, l.KVMax)
	}
	if l.MAMin <= 0 || l.MAMin >= l.MAMax {
		add("limits: ma range [%g, %g] is invalid", l.MAMin, l.MAMax)
	}
	if l.TimeMin <= 0 || l.TimeMin >= l.TimeMax {
		add("limits: time range [%g, %g] is invalid", l.TimeMin, l.TimeMax)
	}
	if p.MAMode == MABinary && (l.BinaryMALow <= 0 || l.BinaryMALow >= l.BinaryMAHigh) {
		add("limits: binary ma {%g, %g} is invalid", l.BinaryMALow, l.BinaryMAHigh)
	}

	for _, a := range AllAgeBrackets() {
		if _, ok := p.Ages[a]; !ok {
			add("ages: missing row for %s", a)
		}
	}
	for _, b := range AllBodyTypes() {
		row, ok := p.Bodies[b]
		if !ok {
			add("body_types: missing row for %s", b)
			continue
		}
		if row.TimeMultiplier <= 0 {
			add("body_types: %s time_multiplier must be > 0", b)
		}
	}
	for _, r := range AllRegions() {
		row, ok := p.Regions[r]
		if !ok {
			add("regions: missing row for %s", r)
			continue
		}
		if !row.Equipment.IsValid() {
			add("regions: %s has invalid equipment %q", r, row.Equipment)
		}
		if row.BaseTime <= 0 {
			add("regions: %s base_time must be > 0", r)
		}
		if p.Strategy == ThicknessMaron {
			if _, ok := p.Classes[row.Structure]; !ok {
				add("regions: %s structure %q has no row in structures", r, row.Structure)
			}
		}
	}

	if len(p.Chest.Regions) > 0 {
		for _, r := range p.Chest.Regions {
			if !r.IsValid() {
				add("chest: unknown region %s", r)
			}
		}
		for _, b := range AllBodyTypes() {
			if _, ok := p.Chest.Rows[b]; !ok {
				add("chest: missing row for %s", b)
			}
		}
	}

	if _, ok := p.Ages[p.Fallback.Age]; !ok {
		add("fallback: age %s has no row", p.Fallback.Age)
	}
	if _, ok := p.Bodies[p.Fallback.BodyType]; !ok {
		add("fallback: body type %s has no row", p.Fallback.BodyType)
	}
	if _, ok := p.Regions[p.Fallback.Region]; !ok {
		add("fallback: region %s has no row", p.Fallback.Region)
	}

	if p.Strategy == ThicknessMaron {
		if len(p.Steps) == 0 {
			add("time_steps: at least one step is required")
		}
		prev := 0.0
		for i, step := range p.Steps {
			if step.MaxThicknessCM <= prev {
				add("time_steps[%d]: max_thickness_cm must be ascending and > 0", i)
			}
			if step.Time <= 0 {
				add("time_steps[%d]: time must be > 0", i)
			}
			prev = step.MaxThicknessCM
		}
		if p.LastStep <= 0 {
			add("time_beyond_steps must be > 0")
		}
		if l.ThicknessMin <= 0 {
			add("limits: thickness_min must be > 0")
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("protocol %q: %w", p.Name, err)
	}
	return nil
}
