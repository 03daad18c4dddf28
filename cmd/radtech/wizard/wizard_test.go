package wizard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mrsinham/radtech/cmd/radtech/wizard/screens"
	"github.com/mrsinham/radtech/cmd/radtech/wizard/types"
	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestToSheet(t *testing.T) {
	state := &WizardState{
		Selection: types.SelectionConfig{Age: "adult", BodyType: "m", Region: "chest"},
		Output:    types.OutputConfig{CustomTags: map[string]string{"patientname": "Doe^Jane"}},
	}

	sheet, err := ToSheet(state, engine.Default(), fixedNow)
	if err != nil {
		t.Fatalf("ToSheet failed: %v", err)
	}
	if sheet.Result.KV != 82 || sheet.Result.MAs != 20 {
		t.Errorf("Expected adult chest 82 kV / 20 mAs, got %+v", sheet.Result)
	}
	if v, ok := sheet.Tags.Get("PatientName"); !ok || v != "Doe^Jane" {
		t.Errorf("Expected canonical PatientName tag, got %v", sheet.Tags)
	}
	if !sheet.GeneratedAt.Equal(fixedNow) {
		t.Errorf("Expected generation time %v, got %v", fixedNow, sheet.GeneratedAt)
	}
}

func TestToSheet_Errors(t *testing.T) {
	incomplete := &WizardState{Selection: types.SelectionConfig{Age: "adult", Region: "chest"}}
	if _, err := ToSheet(incomplete, engine.Default(), fixedNow); !errors.Is(err, engine.ErrIncompleteSelection) {
		t.Errorf("Expected incomplete selection error, got %v", err)
	}

	badTag := &WizardState{
		Selection: types.SelectionConfig{Age: "newborn", Region: "chest"},
		Output:    types.OutputConfig{CustomTags: map[string]string{"PatientNme": "x"}},
	}
	_, err := ToSheet(badTag, engine.Default(), fixedNow)
	if err == nil || !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("Expected tag suggestion error, got %v", err)
	}
}

func TestSelectionConfig_GroupOnly(t *testing.T) {
	cfg := types.SelectionConfig{Age: "child-1-5", RegionGroup: "upper-limb"}
	sel := cfg.Selection()
	if sel.Region != protocol.GroupUpperLimb.First() {
		t.Errorf("Expected first upper limb projection, got %s", sel.Region)
	}

	if cfg.Constant() != nil {
		t.Error("Empty constant should be nil")
	}
	cfg.EquipmentConstant = " 30 "
	if c := cfg.Constant(); c == nil || *c != 30 {
		t.Errorf("Expected constant 30, got %v", c)
	}
	cfg.EquipmentConstant = "thirty"
	if cfg.Constant() != nil {
		t.Error("Unparsable constant should be nil")
	}
}

func TestFromSelection(t *testing.T) {
	c := 22.5
	state := FromSelection(engine.Selection{Age: protocol.Adult, BodyType: protocol.BodyXL, Region: protocol.KneeAP}, &c)

	if state.Selection.RegionGroup != string(protocol.GroupLowerLimb) {
		t.Errorf("Expected lower limb group, got %s", state.Selection.RegionGroup)
	}
	if state.Selection.EquipmentConstant != "22.5" {
		t.Errorf("Expected constant 22.5, got %s", state.Selection.EquipmentConstant)
	}
}

func TestCLICommand(t *testing.T) {
	tests := []struct {
		name  string
		state WizardState
		want  string
	}{
		{
			name:  "child",
			state: WizardState{Selection: types.SelectionConfig{Age: "newborn", BodyType: "g", Region: "chest"}},
			want:  "radtech --age newborn --region chest",
		},
		{
			name: "adult with protocol and constant",
			state: WizardState{
				Protocol:  "my protocol.yaml",
				Selection: types.SelectionConfig{Age: "adult", BodyType: "gg", Region: "abdomen-lat", EquipmentConstant: "30"},
			},
			want: `radtech --protocol "my protocol.yaml" --age adult --body-type gg --region abdomen-lat --equipment-constant 30`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CLICommand(&tt.state); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	tags, err := ParseTags(" PatientName=Doe^John , InstitutionName = CHU ,")
	if err != nil {
		t.Fatalf("ParseTags failed: %v", err)
	}
	if tags["PatientName"] != "Doe^John" || tags["InstitutionName"] != "CHU" {
		t.Errorf("Unexpected tags %v", tags)
	}
	if got := FormatTags(tags); got != "InstitutionName=CHU, PatientName=Doe^John" {
		t.Errorf("Unexpected formatted tags %q", got)
	}

	if tags, err := ParseTags("  "); err != nil || tags != nil {
		t.Errorf("Expected no tags, got %v, %v", tags, err)
	}
	if _, err := ParseTags("PatientName"); err == nil {
		t.Error("Expected error for missing '='")
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	state := &WizardState{
		Selection: types.SelectionConfig{Age: "child-10-18", Region: "skull-ap"},
		Output: types.OutputConfig{
			PrintPath: filepath.Join(dir, "skull.html"),
			DICOMPath: filepath.Join(dir, "skull.dcm"),
		},
	}

	written, err := Export(state, engine.Default(), fixedNow)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("Expected 2 files, got %v", written)
	}
	for _, p := range written {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Errorf("Expected non-empty file %s: %v", p, err)
		}
	}
}

func TestWizard_ResultSavesSelection(t *testing.T) {
	store := selection.NewMemoryStore()
	state := &WizardState{Selection: types.SelectionConfig{Age: "child-1-5", Region: "hand-pa"}}
	w := NewWizard(state, engine.Default(), store)
	w.now = func() time.Time { return fixedNow }

	w.transitionToResult("")

	if w.phase != PhaseResult {
		t.Fatalf("Expected result phase, got %d", w.phase)
	}
	if w.sheet == nil || w.sheet.Display.KV != "40.0" {
		t.Fatalf("Expected derived sheet, got %+v", w.sheet)
	}
	if !strings.Contains(w.View(), "40.0") {
		t.Error("Result view should show kV")
	}

	rec, err := store.Load(t.Context())
	if err != nil {
		t.Fatalf("Expected saved selection: %v", err)
	}
	if rec.Age != "child-1-5" || rec.BodyPart != "hand-pa" || !rec.Timestamp.Equal(fixedNow) {
		t.Errorf("Unexpected record %+v", rec)
	}
}

func TestWizard_IncompleteResult(t *testing.T) {
	store := selection.NewMemoryStore()
	state := &WizardState{Selection: types.SelectionConfig{Age: "adult", Region: "chest"}}
	w := NewWizard(state, engine.Default(), store)

	w.transitionToResult("")

	if w.sheet != nil {
		t.Error("Incomplete selection should not produce a sheet")
	}
	if !strings.Contains(w.View(), engine.Placeholder) {
		t.Error("Result view should show placeholders")
	}
	if _, err := store.Load(t.Context()); !errors.Is(err, selection.ErrNotFound) {
		t.Errorf("Incomplete selection should not be saved, got %v", err)
	}
	if w.resultScreen.Action() != screens.ResultActionNew {
		t.Errorf("Default action without a sheet should be a new selection")
	}
}

func TestSelectionScreen_Preview(t *testing.T) {
	cfg := &types.SelectionConfig{}
	s := screens.NewSelectionScreen(cfg, engine.Default())

	if cfg.Age != "newborn" || cfg.Region != "chest" || cfg.RegionGroup != "torso" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if !strings.Contains(s.Preview(), "72.0") {
		t.Errorf("Preview should show newborn chest kV:\n%s", s.Preview())
	}

	cfg.Age = "adult"
	if !strings.Contains(s.Preview(), engine.Placeholder) {
		t.Error("Preview should show placeholders until a body type is chosen")
	}
}

func TestKVMAsScreen_Calculate(t *testing.T) {
	cfg := &types.KVMAsConfig{EquipmentConstant: "60", Distance: "80"}
	s := screens.NewKVMAsScreen(cfg, protocol.Default())

	s.Calculate()
	if s.Err() != nil {
		t.Fatalf("Unexpected error: %v", s.Err())
	}
	if r := s.Result(); r == nil || r.KV != 60 || r.MAs != 20 {
		t.Errorf("Unexpected result %+v", r)
	}

	cfg.Distance = "far"
	s.Calculate()
	if s.Result() != nil || s.Err() == nil {
		t.Error("Invalid distance should clear the result")
	}
	if !strings.Contains(s.View(), "fill in all fields correctly") {
		t.Error("View should show the form message")
	}
}
