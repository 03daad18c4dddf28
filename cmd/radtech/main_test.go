package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/radtech/internal/config"
	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/kvmas"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
)

func derive(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := runDerive(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunDerive_Text(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "newborn chest",
			args: []string{"--age", "newborn", "--region", "chest"},
			want: []string{"kV:        72.0", "mA:        25.0", "mAs:       0.5", "Equipment: MURAL-BUCKY"},
		},
		{
			name: "legacy age key",
			args: []string{"--age", "1a5", "--region", "hand-pa"},
			want: []string{"Patient:   Child 1-5 years", "kV:        40.0", "mAs:       1.44"},
		},
		{
			name: "thickness protocol",
			args: []string{"--protocol", protocol.NameV2Thickness, "--age", "adult", "--body-type", "m", "--region", "chest", "--equipment-constant", "30"},
			want: []string{"kV:        70.0", "mAs:       5.600", "Thickness: 20 cm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := derive(t, tt.args...)
			if err != nil {
				t.Fatalf("runDerive failed: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Expected %q in output:\n%s", w, out)
				}
			}
		})
	}
}

func TestRunDerive_JSON(t *testing.T) {
	out, _, err := derive(t, "--age", "adult", "--body-type", "m", "--region", "chest", "--format", "json")
	if err != nil {
		t.Fatalf("runDerive failed: %v", err)
	}

	var doc deriveOutput
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, out)
	}
	if !doc.Complete || doc.Result == nil {
		t.Fatalf("Expected complete result, got %+v", doc)
	}
	if doc.Result.KV != 82 || doc.Result.MA != 200 || doc.Result.MAs != 20 || !doc.Result.ChestProtocol {
		t.Errorf("Unexpected result %+v", doc.Result)
	}
	if doc.Display.KV != "82.0" {
		t.Errorf("Expected display kV 82.0, got %s", doc.Display.KV)
	}
}

func TestRunDerive_Incomplete(t *testing.T) {
	out, errOut, err := derive(t, "--age", "adult", "--region", "chest")
	if err != nil {
		t.Fatalf("Incomplete selection should not fail: %v", err)
	}
	if !strings.Contains(out, "kV:        "+engine.Placeholder) {
		t.Errorf("Expected placeholders:\n%s", out)
	}
	if !strings.Contains(errOut, "missing body type") {
		t.Errorf("Expected missing field notice, got %q", errOut)
	}

	_, _, err = derive(t, "--age", "adult", "--region", "chest", "--print", filepath.Join(t.TempDir(), "x.html"))
	if err == nil || !engine.IsIncomplete(err) {
		t.Errorf("Export of an incomplete selection should fail, got %v", err)
	}
}

func TestRunDerive_UnknownRegion(t *testing.T) {
	out, errOut, err := derive(t, "--age", "newborn", "--region", "chset")
	if err != nil {
		t.Fatalf("runDerive failed: %v", err)
	}
	if !strings.Contains(errOut, `did you mean "chest"`) {
		t.Errorf("Expected suggestion, got %q", errOut)
	}
	if !strings.Contains(out, "kV:        72.0") {
		t.Errorf("Expected fallback chest row:\n%s", out)
	}
}

func TestRunDerive_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"--format", "xml"}},
		{"bad tag", []string{"--age", "newborn", "--region", "chest", "--tag", "Nonsense=1"}},
		{"unknown protocol", []string{"--protocol", "no-such-protocol"}},
		{"stray argument", []string{"--age", "newborn", "chest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := derive(t, tt.args...); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestRunDerive_Export(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "knee.html")
	dcmPath := filepath.Join(dir, "knee.dcm")

	_, _, err := derive(t, "--age", "adult", "--body-type", "g", "--region", "skull-ap",
		"--print", htmlPath, "--export-dicom", dcmPath, "--tag", "PatientID=P001")
	if err != nil {
		t.Fatalf("runDerive failed: %v", err)
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("Expected HTML sheet: %v", err)
	}
	if !strings.Contains(string(html), "76.0") {
		t.Error("Sheet should contain kV 76.0")
	}

	ds, err := dicom.ParseFile(dcmPath, nil)
	if err != nil {
		t.Fatalf("Failed to parse DICOM: %v", err)
	}
	elem, err := ds.FindElementByTag(tag.PatientID)
	if err != nil {
		t.Fatal("PatientID tag not found")
	}
	if v := elem.Value.GetValue().([]string)[0]; v != "P001" {
		t.Errorf("PatientID = %s, want P001", v)
	}
}

func TestRunDerive_SaveRestore(t *testing.T) {
	dir := t.TempDir()

	_, _, err := derive(t, "--age", "adult", "--body-type", "g", "--region", "skull-ap", "--save", "--selection-dir", dir)
	if err != nil {
		t.Fatalf("save run failed: %v", err)
	}

	rec, err := selection.NewFileStore(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Expected saved selection: %v", err)
	}
	if rec.Age != "adult" || rec.BodyType != "g" || rec.BodyPart != "skull-ap" {
		t.Errorf("Unexpected record %+v", rec)
	}

	out, _, err := derive(t, "--restore", "--selection-dir", dir)
	if err != nil {
		t.Fatalf("restore run failed: %v", err)
	}
	if !strings.Contains(out, "kV:        76.0") {
		t.Errorf("Expected restored adult skull technique:\n%s", out)
	}

	out, _, err = derive(t, "--restore", "--selection-dir", dir, "--region", "chest")
	if err != nil {
		t.Fatalf("restore with override failed: %v", err)
	}
	if !strings.Contains(out, "kV:        88.0") {
		t.Errorf("Explicit region should override the restored one:\n%s", out)
	}

	_, errOut, err := derive(t, "--restore", "--selection-dir", t.TempDir())
	if err != nil {
		t.Fatalf("restore from empty dir failed: %v", err)
	}
	if !strings.Contains(errOut, "no saved selection") {
		t.Errorf("Expected warning, got %q", errOut)
	}
}

func TestRunDerive_Version(t *testing.T) {
	out, _, err := derive(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "radtech dev\n" {
		t.Errorf("Unexpected version output %q", out)
	}
}

func TestRunKVMAs(t *testing.T) {
	var out bytes.Buffer
	if err := runKVMAs([]string{"--constant", "60", "--distance", "120", "--structure", "bony"}, &out); err != nil {
		t.Fatalf("runKVMAs failed: %v", err)
	}
	for _, w := range []string{"kV:        65.0", "mAs:       20", "kV raised by 5"} {
		if !strings.Contains(out.String(), w) {
			t.Errorf("Expected %q in output:\n%s", w, out.String())
		}
	}

	err := runKVMAs([]string{"--constant", "abc", "--distance", "120"}, &out)
	if !kvmas.IsFormError(err) {
		t.Errorf("Expected form error, got %v", err)
	}
}

func TestRunProtocol(t *testing.T) {
	var out bytes.Buffer
	if err := runProtocol(nil, &out); err != nil {
		t.Fatalf("runProtocol failed: %v", err)
	}
	p, err := protocol.Parse(out.Bytes())
	if err != nil {
		t.Fatalf("Dumped protocol does not parse: %v", err)
	}
	if p.Name != protocol.NameV1 {
		t.Errorf("Expected %s, got %s", protocol.NameV1, p.Name)
	}

	path := filepath.Join(t.TempDir(), "v2.yaml")
	if err := runProtocol([]string{"--name", protocol.NameV2Thickness, "--out", path}, &out); err != nil {
		t.Fatalf("runProtocol --out failed: %v", err)
	}
	loaded, err := protocol.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Strategy != protocol.ThicknessMaron {
		t.Errorf("Expected thickness strategy, got %s", loaded.Strategy)
	}

	if err := runProtocol([]string{"--name", "bogus"}, &out); err == nil {
		t.Error("Expected error for unknown protocol")
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"memory", config.Config{SelectionStore: config.StoreMemory}, false},
		{"file", config.Config{SelectionStore: config.StoreFile, SelectionDir: dir}, false},
		{"sqlite", config.Config{SelectionStore: config.StoreSQL, DBDriver: "sqlite", DBDSN: filepath.Join(dir, "radtech.db")}, false},
		{"bad driver", config.Config{SelectionStore: config.StoreSQL, DBDriver: "oracle"}, true},
		{"bad store", config.Config{SelectionStore: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeStore, err := openStore(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStore failed: %v", err)
			}
			defer closeStore()

			rec := selection.Record{Age: "newborn", BodyPart: "chest"}
			if err := store.Save(context.Background(), rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := store.Load(context.Background())
			if err != nil || got.Age != "newborn" || got.BodyPart != "chest" {
				t.Errorf("Unexpected load %+v, %v", got, err)
			}
		})
	}
}
