// Package sdk is the small library a workflow binary links against: it
// parses the binary's CLI, answers the hidden --workflow-metadata probe
// flag, and gives workflow authors the log-emitting macros and the
// batch/agent execution primitives so a phase reads as straight-line Go
// with events flowing implicitly to the runtime that spawned it.
package sdk

import "github.com/relaykit/conductor/internal/core"

// Metadata builds the top-level identity half of a FullWorkflowMetadata
// reply: a small convenience over constructing core.Metadata by hand.
func Metadata(id, name, description string) core.Metadata {
	return core.Metadata{ID: id, Name: name, Description: description}
}

// TextField describes a free-text input.
func TextField(name, label, cliArg string, required bool) core.Field {
	return core.Field{Name: name, Label: label, CLIArg: cliArg, Required: required, Kind: core.FieldKindText}
}

// NumberField describes a numeric input with optional inclusive bounds;
// pass nil for an unbounded min/max.
func NumberField(name, label, cliArg string, required bool, min, max *float64) core.Field {
	return core.Field{Name: name, Label: label, CLIArg: cliArg, Required: required, Kind: core.FieldKindNumber, Min: min, Max: max}
}

// FilePathField describes a filesystem path input, optionally constrained
// by a glob pattern.
func FilePathField(name, label, cliArg, globPattern string, required bool) core.Field {
	return core.Field{Name: name, Label: label, CLIArg: cliArg, Required: required, Kind: core.FieldKindFilePath, GlobPattern: globPattern}
}

// SelectField describes an input constrained to a fixed option list.
func SelectField(name, label, cliArg string, required bool, options []string) core.Field {
	return core.Field{Name: name, Label: label, CLIArg: cliArg, Required: required, Kind: core.FieldKindSelect, Options: options}
}

// PhaseSelectorField describes an input that lets the caller pick among
// the workflow's totalPhases phases.
func PhaseSelectorField(name, label, cliArg string, required bool, totalPhases int) core.Field {
	return core.Field{Name: name, Label: label, CLIArg: cliArg, Required: required, Kind: core.FieldKindPhaseSelector, TotalPhases: totalPhases}
}

// StateFileField describes an input naming a file an earlier phase wrote,
// matched against filenamePattern and optionally scoped to the phase that
// produced it.
func StateFileField(name, label, cliArg, filenamePattern, originatingPhase string, required bool) core.Field {
	return core.Field{
		Name: name, Label: label, CLIArg: cliArg, Required: required,
		Kind: core.FieldKindStateFile, FilenamePattern: filenamePattern, OriginatingPhase: originatingPhase,
	}
}
