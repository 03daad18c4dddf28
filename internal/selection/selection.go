// Package selection persists the last patient selection so a shell can
// restore it on the next start.
package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/protocol"
)

// Key is the fixed storage key of the last selection.
const Key = "radtech.lastSelection"

// ErrNotFound is returned by Load when nothing was saved yet.
var ErrNotFound = errors.New("no saved selection")

// Record is the persisted form of a selection.
type Record struct {
	Age       string    `json:"age"`
	BodyType  string    `json:"bodyType"`
	BodyPart  string    `json:"bodyPart"`
	Timestamp time.Time `json:"timestamp"`
}

// Store saves and loads the last selection.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context) (Record, error)
}

// FromSelection converts a selection for storage.
func FromSelection(sel engine.Selection, now time.Time) Record {
	return Record{
		Age:       string(sel.Age),
		BodyType:  string(sel.BodyType),
		BodyPart:  string(sel.Region),
		Timestamp: now.UTC(),
	}
}

// Selection converts the record back, running the key parsers. Keys that
// no longer parse are kept as-is and resolve to fallback rows.
func (r Record) Selection() engine.Selection {
	return engine.SelectionFromKeys(r.Age, r.BodyType, r.BodyPart)
}

// Encode returns the JSON blob stored under Key.
func (r Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses a stored JSON blob.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", Key, err)
	}
	return r, nil
}

// Restore loads the last selection from s. It returns the default
// selection and false when nothing usable was stored.
func Restore(ctx context.Context, s Store) (engine.Selection, bool, error) {
	rec, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return engine.DefaultSelection(), false, nil
	}
	if err != nil {
		return engine.DefaultSelection(), false, err
	}
	sel := rec.Selection()
	if sel.Age == "" && sel.Region == "" {
		return engine.DefaultSelection(), false, nil
	}
	if sel.Region == "" {
		sel = sel.WithRegion(protocol.Chest)
	}
	return sel, true, nil
}
