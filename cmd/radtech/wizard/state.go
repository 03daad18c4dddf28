// Package wizard provides an interactive TUI for deriving exposure technique.
package wizard

import "github.com/mrsinham/radtech/cmd/radtech/wizard/types"

// WizardState holds the complete state for the wizard interface.
type WizardState struct {
	// Protocol is a built-in protocol name or a YAML file path.
	Protocol  string
	Selection types.SelectionConfig
	Output    types.OutputConfig
	KVMAs     types.KVMAsConfig
}
