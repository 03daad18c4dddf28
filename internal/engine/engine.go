// Package engine derives radiographic exposure technique (kV, mA, time, mAs
// and equipment class) from a patient selection and a protocol table.
//
// Derivation is a pure function of its inputs: an Engine holds only the
// protocol it was built with and is safe for concurrent use.
package engine

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/mrsinham/radtech/internal/protocol"
	"go.uber.org/zap"
)

// Derivation outcomes reported to observers.
const (
	OutcomeOK         = "ok"
	OutcomeIncomplete = "incomplete"
)

// Observer receives derivation events, typically to feed metrics.
type Observer interface {
	ObserveDerivation(strategy protocol.StrategyKind, outcome string, elapsed time.Duration)
	ObserveFallback(field string)
}

// Engine derives results for one protocol.
type Engine struct {
	protocol *protocol.Protocol
	strategy Strategy
	logger   *zap.Logger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver sets the derivation observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New validates p and returns an engine using the strategy it names. The
// engine keeps its own copy of the protocol.
func New(p *protocol.Protocol, opts ...Option) (*Engine, error) {
	if p == nil {
		return nil, errors.New("protocol is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		protocol: p.Clone(),
		strategy: StrategyFor(p.Strategy),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Protocol returns a copy of the engine's protocol.
func (e *Engine) Protocol() *protocol.Protocol {
	return e.protocol.Clone()
}

// Strategy returns the active strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// DeriveOption adjusts a single derivation.
type DeriveOption func(*deriveConfig)

type deriveConfig struct {
	equipmentConstant *float64
}

// WithEquipmentConstant supplies the equipment constant used by the
// thickness strategy. Non-finite values are replaced by the protocol default.
func WithEquipmentConstant(c float64) DeriveOption {
	return func(cfg *deriveConfig) {
		cfg.equipmentConstant = &c
	}
}

// Derive computes the technique for sel. It returns an error matching
// ErrIncompleteSelection when a required field is unset. Unknown keys are
// replaced by the protocol fallback rows and never fail.
func (e *Engine) Derive(sel Selection, opts ...DeriveOption) (Result, error) {
	start := time.Now()
	kind := e.strategy.Kind()

	if missing := sel.Missing(); len(missing) > 0 {
		e.observe(kind, OutcomeIncomplete, start)
		return Result{}, &IncompleteSelectionError{Missing: missing}
	}

	var cfg deriveConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	constant := e.protocol.DefaultEquipmentConstant
	if c := cfg.equipmentConstant; c != nil && !math.IsNaN(*c) && !math.IsInf(*c, 0) {
		constant = *c
	}

	resolved := e.resolve(sel)
	res := e.strategy.Compute(e.protocol, resolved, constant)

	e.observe(kind, OutcomeOK, start)
	return res, nil
}

// Format renders a Derive outcome with the protocol's mAs display rule.
func (e *Engine) Format(res Result, err error) Display {
	return FormatResult(res, err, e.protocol.MAsDisplay)
}

// resolve substitutes fallback keys for keys missing from the tables.
func (e *Engine) resolve(sel Selection) Selection {
	p := e.protocol
	out := sel

	if _, err := p.Age(sel.Age); err != nil {
		e.fallback("age", err)
		out.Age = p.Fallback.Age
	}
	if out.IsAdult() {
		if _, err := p.BodyType(sel.BodyType); err != nil {
			e.fallback("body_type", err)
			out.BodyType = p.Fallback.BodyType
		}
	} else {
		out.BodyType = ""
	}
	if _, err := p.Region(sel.Region); err != nil {
		e.fallback("region", err)
		out.Region = p.Fallback.Region
	}
	return out
}

func (e *Engine) fallback(field string, err error) {
	e.logger.Warn("unrecognized key, using fallback row",
		zap.String("field", field),
		zap.String("protocol", e.protocol.Name),
		zap.Error(err),
	)
	if e.observer != nil {
		e.observer.ObserveFallback(field)
	}
}

func (e *Engine) observe(kind protocol.StrategyKind, outcome string, start time.Time) {
	if e.observer != nil {
		e.observer.ObserveDerivation(kind, outcome, time.Since(start))
	}
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns an engine over the canonical protocol.
func Default() *Engine {
	defaultOnce.Do(func() {
		e, err := New(protocol.Default())
		if err != nil {
			panic("default protocol: " + err.Error())
		}
		defaultEngine = e
	})
	return defaultEngine
}

// Derive derives sel with the default engine. equipmentConstant may be nil.
func Derive(sel Selection, equipmentConstant *float64) (Result, error) {
	if equipmentConstant == nil {
		return Default().Derive(sel)
	}
	return Default().Derive(sel, WithEquipmentConstant(*equipmentConstant))
}
