package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/export"
	"github.com/mrsinham/radtech/internal/logging"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
	"go.uber.org/zap"
)

// deriveOutput is the --format json document.
type deriveOutput struct {
	Protocol  string           `json:"protocol"`
	Selection engine.Selection `json:"selection"`
	Complete  bool             `json:"complete"`
	Missing   []string         `json:"missing,omitempty"`
	Result    *engine.Result   `json:"result,omitempty"`
	Display   engine.Display   `json:"display"`
}

// runDerive is the default command: derive one selection and print it.
func runDerive(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("radtech", flag.ContinueOnError)
	fs.SetOutput(stderr)

	age := fs.String("age", "", "Age bracket: newborn, child-1-5, child-5-10, child-10-18, adult")
	bodyType := fs.String("body-type", "", "Adult body type: p, m, g, gg, xl")
	region := fs.String("region", "", "Projection key (e.g. chest, skull-ap)")
	constant := fs.String("equipment-constant", "", "Equipment constant for thickness protocols")
	protocolRef := fs.String("protocol", "", "Built-in protocol name or YAML file")
	format := fs.String("format", "text", "Output format: text or json")
	printPath := fs.String("print", "", "Write an HTML technique sheet to FILE")
	dicomPath := fs.String("export-dicom", "", "Write a DICOM DX record to FILE")
	restore := fs.Bool("restore", false, "Fill unset selection flags from the last saved selection")
	save := fs.Bool("save", false, "Save this selection as the last selection")
	selectionDir := fs.String("selection-dir", "", "Directory holding the last selection")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error")

	var tagFlags []string
	fs.Func("tag", "Set DICOM tag: 'TagName=Value' (repeatable)", func(s string) error {
		tagFlags = append(tagFlags, s)
		return nil
	})

	help := fs.Bool("help", false, "Show help message")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	if *help {
		printHelp()
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "radtech %s\n", version)
		return nil
	}

	if *format != "text" && *format != "json" {
		return fmt.Errorf("invalid format: %s (valid: text, json)", *format)
	}

	logger, err := logging.NewCLI(*logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	parsedTags, err := export.ParseTagFlags(tagFlags)
	if err != nil {
		return err
	}

	p, err := protocol.Resolve(*protocolRef)
	if err != nil {
		return err
	}
	e, err := engine.New(p, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	var store selection.Store
	if *restore || *save {
		dir := *selectionDir
		if dir == "" {
			if dir, err = selection.DefaultDir(); err != nil {
				return err
			}
		}
		store = selection.NewFileStore(dir)
	}

	ctx := context.Background()
	if *restore {
		rec, err := store.Load(ctx)
		switch {
		case errors.Is(err, selection.ErrNotFound):
			fmt.Fprintln(stderr, "Warning: no saved selection to restore")
		case err != nil:
			return err
		default:
			*age = firstNonEmpty(*age, rec.Age)
			*bodyType = firstNonEmpty(*bodyType, rec.BodyType)
			*region = firstNonEmpty(*region, rec.BodyPart)
		}
	}

	if strings.TrimSpace(*region) != "" {
		if _, err := protocol.ParseRegion(*region); err != nil {
			if suggestion := protocol.SuggestRegion(*region); suggestion != "" {
				fmt.Fprintf(stderr, "Warning: unknown region %q, did you mean %q? Using %s.\n", *region, suggestion, p.Fallback.Region)
			} else {
				fmt.Fprintf(stderr, "Warning: unknown region %q. Using %s.\n", *region, p.Fallback.Region)
			}
		}
	}

	sel := engine.SelectionFromKeys(*age, *bodyType, *region)

	var constantValue *float64
	var opts []engine.DeriveOption
	if strings.TrimSpace(*constant) != "" {
		v, err := engine.ParseNumber("equipment constant", *constant)
		if err != nil {
			logger.Warn("ignoring equipment constant", zap.Error(err))
			fmt.Fprintf(stderr, "Warning: %v, using default %g\n", err, p.DefaultEquipmentConstant)
		} else {
			constantValue = &v
			opts = append(opts, engine.WithEquipmentConstant(v))
		}
	}

	res, derr := e.Derive(sel, opts...)
	if derr != nil && !engine.IsIncomplete(derr) {
		return derr
	}
	display := e.Format(res, derr)

	switch *format {
	case "json":
		out := deriveOutput{
			Protocol:  p.Label(),
			Selection: sel,
			Complete:  derr == nil,
			Missing:   sel.Missing(),
			Display:   display,
		}
		if derr == nil {
			out.Result = &res
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	default:
		printTechnique(stdout, p, sel, res, display)
	}

	if derr != nil {
		fmt.Fprintf(stderr, "Incomplete selection: missing %s\n", strings.Join(sel.Missing(), ", "))
		if *printPath != "" || *dicomPath != "" {
			return fmt.Errorf("cannot export: %w", derr)
		}
		return nil
	}

	if *printPath != "" || *dicomPath != "" {
		sheet, err := export.NewSheet(e, sel, constantValue, time.Now())
		if err != nil {
			return err
		}
		sheet.Tags = parsedTags
		if *printPath != "" {
			if err := export.WriteHTML(*printPath, sheet); err != nil {
				return err
			}
			fmt.Fprintf(stderr, "Technique sheet written to %s\n", *printPath)
		}
		if *dicomPath != "" {
			if err := export.WriteDICOM(*dicomPath, sheet); err != nil {
				return err
			}
			fmt.Fprintf(stderr, "DICOM record written to %s\n", *dicomPath)
		}
	}

	if *save {
		if err := store.Save(ctx, selection.FromSelection(sel, time.Now())); err != nil {
			fmt.Fprintf(stderr, "Warning: could not save selection: %v\n", err)
		}
	}

	return nil
}

func printTechnique(w io.Writer, p *protocol.Protocol, sel engine.Selection, res engine.Result, d engine.Display) {
	fmt.Fprintf(w, "Protocol:  %s\n", p.Label())
	patient := sel.Age.Label()
	if sel.IsAdult() && sel.BodyType.IsValid() {
		patient += ", " + sel.BodyType.Label()
	}
	fmt.Fprintf(w, "Patient:   %s\n", patient)
	regionLabel := string(sel.Region)
	if row, err := p.Region(sel.Region); err == nil && row.Description != "" {
		regionLabel = row.Description
	}
	fmt.Fprintf(w, "Region:    %s\n", regionLabel)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "kV:        %s\n", d.KV)
	fmt.Fprintf(w, "mA:        %s\n", d.MA)
	fmt.Fprintf(w, "mAs:       %s\n", d.MAs)
	fmt.Fprintf(w, "Time (s):  %s\n", d.Time)
	if d.EquipmentDescription != "" {
		fmt.Fprintf(w, "Equipment: %s (%s)\n", d.Equipment, d.EquipmentDescription)
	} else {
		fmt.Fprintf(w, "Equipment: %s\n", d.Equipment)
	}
	if d.Complete && res.ThicknessCM > 0 {
		fmt.Fprintf(w, "Thickness: %.0f cm\n", res.ThicknessCM)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
