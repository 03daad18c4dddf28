package protocol

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables/radtech-v1.yaml
var canonicalTable []byte

// Built-in protocol names.
const (
	NameV1          = "radtech-v1"
	NameV1Binary    = "radtech-v1-binary"
	NameV2Thickness = "radtech-v2-thickness"
)

var (
	defaultOnce     sync.Once
	defaultProtocol *Protocol
)

// variants derive the built-in protocols from the canonical table. Every
// variant reads the same region data.
var variants = map[string]func(p *Protocol){
	NameV1: func(p *Protocol) {},
	NameV1Binary: func(p *Protocol) {
		p.Name = NameV1Binary
		p.Description = "Table composition with tube current snapped to 100 or 200 mA"
		p.MAMode = MABinary
	},
	NameV2Thickness: func(p *Protocol) {
		p.Name = NameV2Thickness
		p.Version = "2.0.0"
		p.Description = "Patient thickness with Maron structure factors"
		p.Strategy = ThicknessMaron
		p.MAsDisplay = MAsFixed3
	},
}

// Default returns a copy of the canonical protocol. It panics if the
// embedded table is invalid, which the package tests rule out.
func Default() *Protocol {
	defaultOnce.Do(func() {
		p, err := Parse(canonicalTable)
		if err != nil {
			panic(fmt.Sprintf("embedded protocol table: %v", err))
		}
		defaultProtocol = p
	})
	return defaultProtocol.Clone()
}

// BuiltinNames returns the names accepted by Builtin.
func BuiltinNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a named built-in protocol.
func Builtin(name string) (*Protocol, error) {
	apply, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown protocol %q (built-in: %v)", name, BuiltinNames())
	}
	p := Default()
	apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Resolve returns a built-in protocol by name or loads ref as a YAML file.
// An empty ref yields the default protocol.
func Resolve(ref string) (*Protocol, error) {
	if ref == "" {
		return Default(), nil
	}
	if _, ok := variants[ref]; ok {
		return Builtin(ref)
	}
	return Load(ref)
}

// Parse decodes and validates a YAML protocol.
func Parse(data []byte) (*Protocol, error) {
	var p Protocol
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding protocol: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a YAML protocol file.
func Load(path string) (*Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading protocol file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Marshal encodes a protocol as YAML.
func Marshal(p *Protocol) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encoding protocol: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding protocol: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes a protocol as YAML.
func Save(p *Protocol, path string) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing protocol file: %w", err)
	}
	return nil
}
