package selection

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrsinham/radtech/internal/db"
	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/protocol"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "sel.db"))
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(t.TempDir()),
		"sql":    NewSQLStore(conn),
	}
}

func TestStores_RoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound before save, got %v", err)
			}

			sel := engine.NewSelection().WithAge(protocol.Adult).WithBodyType(protocol.BodyG).WithRegion(protocol.KneeAP)
			if err := s.Save(ctx, FromSelection(sel, now)); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			// Second save overwrites the single key.
			sel = sel.WithRegion(protocol.SkullAP)
			if err := s.Save(ctx, FromSelection(sel, now.Add(time.Minute))); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			rec, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if rec.Age != "adult" || rec.BodyType != "g" || rec.BodyPart != "skull-ap" {
				t.Errorf("Unexpected record %+v", rec)
			}
			if !rec.Timestamp.Equal(now.Add(time.Minute)) {
				t.Errorf("Expected timestamp %v, got %v", now.Add(time.Minute), rec.Timestamp)
			}
			if got := rec.Selection(); got != sel {
				t.Errorf("Expected selection %+v, got %+v", sel, got)
			}
		})
	}
}

func TestRecord_JSONFieldNames(t *testing.T) {
	rec := FromSelection(engine.DefaultSelection(), time.Unix(0, 0))
	data, err := rec.Encode()
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"age", "bodyType", "bodyPart", "timestamp"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected key %q in %s", key, data)
		}
	}
}

func TestRecord_SelectionNormalizes(t *testing.T) {
	rec := Record{Age: "5a10", BodyType: "xl", BodyPart: "hand-pa"}
	sel := rec.Selection()
	if sel.Age != protocol.Child5to10 {
		t.Errorf("Expected legacy age to parse, got %q", sel.Age)
	}
	if sel.BodyType != "" {
		t.Errorf("Expected body type dropped for child, got %q", sel.BodyType)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	s := NewMemoryStore()
	sel, ok, err := Restore(ctx, s)
	if err != nil || ok {
		t.Fatalf("Expected no restore from empty store, got ok=%v err=%v", ok, err)
	}
	if sel != engine.DefaultSelection() {
		t.Errorf("Expected default selection, got %+v", sel)
	}

	_ = s.Save(ctx, Record{Age: "adult", BodyType: "m"})
	sel, ok, err = Restore(ctx, s)
	if err != nil || !ok {
		t.Fatalf("Expected restore, got ok=%v err=%v", ok, err)
	}
	if sel.Region != protocol.Chest || sel.BodyType != protocol.BodyM {
		t.Errorf("Expected adult/m with chest, got %+v", sel)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background()); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected decode error, got %v", err)
	}
	if filepath.Base(s.Path()) != Key+".json" {
		t.Errorf("Expected file named after key, got %s", s.Path())
	}
}
