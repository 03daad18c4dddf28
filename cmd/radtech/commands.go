package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrsinham/radtech/cmd/radtech/wizard"
	"github.com/mrsinham/radtech/internal/kvmas"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
)

func runWizard(args []string) error {
	fs := flag.NewFlagSet("radtech wizard", flag.ContinueOnError)
	from := fs.String("from", "", "Load a saved selection from a YAML file")
	protocolRef := fs.String("protocol", "", "Built-in protocol name or YAML file")
	selectionDir := fs.String("selection-dir", "", "Directory holding the last selection")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := *selectionDir
	if dir == "" {
		var err error
		if dir, err = selection.DefaultDir(); err != nil {
			return err
		}
	}

	return wizard.Run(wizard.Options{
		FromConfig: *from,
		Protocol:   *protocolRef,
		Store:      selection.NewFileStore(dir),
	})
}

func runKVMAs(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("radtech kvmas", flag.ContinueOnError)
	constant := fs.String("constant", "", "Equipment constant (base kV)")
	distance := fs.String("distance", "", "Source to image distance in cm")
	structure := fs.String("structure", string(protocol.Bony), "Structure: bony, extremity, respiratory, digestive, urinary, soft-tissue")
	protocolRef := fs.String("protocol", "", "Built-in protocol name or YAML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := protocol.Resolve(*protocolRef)
	if err != nil {
		return err
	}

	res, err := kvmas.Run(p, *constant, *distance, *structure)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Structure: %s\n", res.Structure.Label())
	fmt.Fprintf(stdout, "kV:        %.1f\n", res.KV)
	fmt.Fprintf(stdout, "mA:        %.1f\n", res.MA)
	fmt.Fprintf(stdout, "Time (s):  %g\n", res.Time)
	fmt.Fprintf(stdout, "mAs:       %g\n", res.MAs)
	if res.DistanceBoost {
		fmt.Fprintf(stdout, "kV raised by %g for distance over %g cm\n", p.Modal.DistanceKVBoost, p.Modal.DistanceThresholdCM)
	}
	return nil
}

func runProtocol(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("radtech protocol", flag.ContinueOnError)
	name := fs.String("name", protocol.NameV1, fmt.Sprintf("Built-in protocol %v", protocol.BuiltinNames()))
	out := fs.String("out", "", "Write to FILE instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := protocol.Builtin(*name)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := protocol.Save(p, *out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Protocol %s written to %s\n", p.Label(), *out)
		return nil
	}

	data, err := protocol.Marshal(p)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
