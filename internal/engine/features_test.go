package engine

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/cucumber/godog"

	"github.com/mrsinham/radtech/internal/protocol"
)

// derivationContext holds state for a single scenario
type derivationContext struct {
	engine   *Engine
	age      string
	body     string
	region   string
	constant *float64
	result   Result
	err      error
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	dc := &derivationContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		*dc = derivationContext{}
		return ctx, nil
	})

	sc.Step(`^the "([^"]*)" protocol$`, dc.theProtocol)
	sc.Step(`^the patient age is "([^"]*)"$`, func(v string) error { dc.age = v; return nil })
	sc.Step(`^the body type is "([^"]*)"$`, func(v string) error { dc.body = v; return nil })
	sc.Step(`^the region is "([^"]*)"$`, func(v string) error { dc.region = v; return nil })
	sc.Step(`^the equipment constant is ([0-9.]+)$`, func(v float64) error { dc.constant = &v; return nil })
	sc.Step(`^I derive the technique$`, dc.iDeriveTheTechnique)

	sc.Step(`^kV should be ([0-9.]+)$`, dc.fieldShouldBe("kV", func(r Result) float64 { return r.KV }))
	sc.Step(`^mA should be ([0-9.]+)$`, dc.fieldShouldBe("mA", func(r Result) float64 { return r.MA }))
	sc.Step(`^mAs should be ([0-9.]+)$`, dc.fieldShouldBe("mAs", func(r Result) float64 { return r.MAs }))
	sc.Step(`^the time should be ([0-9.]+) s$`, dc.fieldShouldBe("time", func(r Result) float64 { return r.Time }))
	sc.Step(`^the estimated thickness should be ([0-9.]+) cm$`, dc.fieldShouldBe("thickness", func(r Result) float64 { return r.ThicknessCM }))
	sc.Step(`^the equipment should be "([^"]*)"$`, dc.theEquipmentShouldBe)
	sc.Step(`^the displayed mAs should be "([^"]*)"$`, dc.theDisplayedMAsShouldBe)
	sc.Step(`^the result should match the same selection without a body type$`, dc.resultIgnoresBodyType)
	sc.Step(`^the selection should be incomplete$`, dc.theSelectionShouldBeIncomplete)
	sc.Step(`^every display field should show "([^"]*)"$`, dc.everyDisplayFieldShouldShow)
}

func (dc *derivationContext) theProtocol(name string) error {
	p, err := protocol.Builtin(name)
	if err != nil {
		return err
	}
	dc.engine, err = New(p)
	return err
}

func (dc *derivationContext) selection() Selection {
	return SelectionFromKeys(dc.age, dc.body, dc.region)
}

func (dc *derivationContext) iDeriveTheTechnique() error {
	if dc.engine == nil {
		return fmt.Errorf("no protocol loaded")
	}
	var opts []DeriveOption
	if dc.constant != nil {
		opts = append(opts, WithEquipmentConstant(*dc.constant))
	}
	dc.result, dc.err = dc.engine.Derive(dc.selection(), opts...)
	return nil
}

func (dc *derivationContext) fieldShouldBe(name string, get func(Result) float64) func(float64) error {
	return func(want float64) error {
		if dc.err != nil {
			return fmt.Errorf("derivation failed: %v", dc.err)
		}
		if got := get(dc.result); math.Abs(got-want) > 1e-9 {
			return fmt.Errorf("expected %s %v, got %v", name, want, got)
		}
		return nil
	}
}

func (dc *derivationContext) theEquipmentShouldBe(want string) error {
	if got := string(dc.result.Equipment); got != want {
		return fmt.Errorf("expected equipment %s, got %s", want, got)
	}
	return nil
}

func (dc *derivationContext) theDisplayedMAsShouldBe(want string) error {
	if got := dc.engine.Format(dc.result, dc.err).MAs; got != want {
		return fmt.Errorf("expected displayed mAs %q, got %q", want, got)
	}
	return nil
}

func (dc *derivationContext) resultIgnoresBodyType() error {
	without := dc.selection()
	without.BodyType = ""
	want, err := dc.engine.Derive(without)
	if err != nil {
		return err
	}
	if dc.result != want {
		return fmt.Errorf("expected %+v, got %+v", want, dc.result)
	}
	return nil
}

func (dc *derivationContext) theSelectionShouldBeIncomplete() error {
	if !IsIncomplete(dc.err) {
		return fmt.Errorf("expected incomplete selection, got %v", dc.err)
	}
	return nil
}

func (dc *derivationContext) everyDisplayFieldShouldShow(want string) error {
	d := dc.engine.Format(dc.result, dc.err)
	for name, got := range map[string]string{
		"kV": d.KV, "mA": d.MA, "mAs": d.MAs, "time": d.Time, "equipment": d.Equipment,
	} {
		if got != want {
			return fmt.Errorf("expected %s to show %q, got %q", name, want, got)
		}
	}
	return nil
}
