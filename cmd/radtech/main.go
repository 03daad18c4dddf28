package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	args := os.Args[1:]

	var err error
	if len(args) > 0 {
		switch args[0] {
		case "wizard":
			err = runWizard(args[1:])
		case "kvmas":
			err = runKVMAs(args[1:], os.Stdout)
		case "serve":
			err = runServe(args[1:])
		case "protocol":
			err = runProtocol(args[1:], os.Stdout)
		default:
			err = runDerive(args, os.Stdout, os.Stderr)
		}
	} else {
		err = runDerive(args, os.Stdout, os.Stderr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("radtech")
	fmt.Println("=======")
	fmt.Println()
	fmt.Println("Derive radiographic exposure technique (kV, mA, time, mAs, equipment)")
	fmt.Println("from patient age, body type and anatomical projection.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  radtech --age <AGE> [--body-type <TYPE>] --region <REGION> [options]")
	fmt.Println("  radtech wizard [--from FILE] [--protocol NAME|FILE]")
	fmt.Println("  radtech kvmas --constant <N> --distance <CM> --structure <CLASS>")
	fmt.Println("  radtech serve")
	fmt.Println("  radtech protocol [--name NAME] [--out FILE]")
	fmt.Println()
	fmt.Println("Selection:")
	fmt.Println("  --age <AGE>           newborn, child-1-5, child-5-10, child-10-18, adult")
	fmt.Println("  --body-type <TYPE>    p, m, g, gg, xl (adults only)")
	fmt.Println("  --region <REGION>     Projection key, e.g. chest, skull-ap, hand-pa")
	fmt.Println("  --equipment-constant <N>")
	fmt.Println("                        Equipment constant for thickness protocols")
	fmt.Println("  --protocol <NAME|FILE>")
	fmt.Println("                        Built-in protocol name or YAML file (default: radtech-v1)")
	fmt.Println()
	fmt.Println("Output:")
	fmt.Println("  --format <FMT>        text or json (default: text)")
	fmt.Println("  --print <FILE>        Write a printable HTML technique sheet")
	fmt.Println("  --export-dicom <FILE> Write a DICOM DX record with the exposure parameters")
	fmt.Println("  --tag <NAME=VALUE>    Set DICOM tag value in the export (repeatable)")
	fmt.Println("                        Example: --tag \"PatientName=Doe^John\"")
	fmt.Println()
	fmt.Println("Last selection:")
	fmt.Println("  --restore             Fill unset selection flags from the last saved selection")
	fmt.Println("  --save                Save this selection as the last selection")
	fmt.Println("  --selection-dir <DIR> Where the last selection is kept (default: user config dir)")
	fmt.Println()
	fmt.Println("  --log-level <LEVEL>   debug, info, warn, error (default: warn)")
	fmt.Println("  --help                Show this help message")
	fmt.Println("  --version             Show version")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Adult medium build, chest PA")
	fmt.Println("  radtech --age adult --body-type m --region chest")
	fmt.Println()
	fmt.Println("  # Child hand, JSON output")
	fmt.Println("  radtech --age child-1-5 --region hand-pa --format json")
	fmt.Println()
	fmt.Println("  # Thickness based protocol with a custom equipment constant")
	fmt.Println("  radtech --protocol radtech-v2-thickness --age adult --body-type g --region abdomen-ap --equipment-constant 25")
	fmt.Println()
	fmt.Println("  # Technique sheet and DICOM record")
	fmt.Println("  radtech --age adult --body-type m --region knee-ap --print knee.html --export-dicom knee.dcm --tag \"PatientID=P001\"")
	fmt.Println()
	fmt.Println("  # Dump the default protocol for editing")
	fmt.Println("  radtech protocol --out my-protocol.yaml")
	fmt.Println()
	fmt.Println("Server environment:")
	fmt.Println("  RADTECH_ADDR, RADTECH_PROTOCOL, RADTECH_SELECTION_STORE (memory|file|sql),")
	fmt.Println("  RADTECH_SELECTION_DIR, RADTECH_DB_DRIVER (sqlite|postgres), RADTECH_DB_DSN,")
	fmt.Println("  RADTECH_JWT_SECRET, RADTECH_ADMIN_USER, RADTECH_ADMIN_PASSWORD_HASH,")
	fmt.Println("  RADTECH_CORS_ORIGINS, RADTECH_LOG_LEVEL, RADTECH_LOG_FORMAT")
}
