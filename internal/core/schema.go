package core

import (
	"fmt"
)

// FieldKind identifies which typed attributes of a Field apply. Fields are
// sum-typed: only the attributes for the field's own kind are meaningful;
// the rest are zero values.
type FieldKind string

const (
	FieldKindText          FieldKind = "text"
	FieldKindNumber        FieldKind = "number"
	FieldKindFilePath      FieldKind = "file_path"
	FieldKindSelect        FieldKind = "select"
	FieldKindPhaseSelector FieldKind = "phase_selector"
	FieldKindStateFile     FieldKind = "state_file"
)

// Field describes one input a workflow accepts.
type Field struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	CLIArg      string    `json:"cli_arg"`
	Required    bool      `json:"required"`
	Default     string    `json:"default,omitempty"`

	// RequiredForPhases is advisory: whether to enforce it at Execute time
	// or only lint it at a consumer layer is left to the caller. Conductor's
	// Runtime.ValidateInputs does not consult it; consumers that want
	// per-phase enforcement read it directly off the schema (see
	// DESIGN.md).
	RequiredForPhases []int `json:"required_for_phases,omitempty"`

	Kind FieldKind `json:"kind"`

	// Number
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// FilePath
	GlobPattern string `json:"glob_pattern,omitempty"`

	// Select
	Options []string `json:"options,omitempty"`

	// PhaseSelector
	TotalPhases int `json:"total_phases,omitempty"`

	// StateFile
	FilenamePattern   string `json:"filename_pattern,omitempty"`
	OriginatingPhase  string `json:"originating_phase,omitempty"`
}

// Metadata identifies a workflow. Ids are stable, non-empty and unique
// within a catalog; Name and Description are human text.
type Metadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FullWorkflowMetadata is exactly what a workflow replies with on the
// metadata probe: its identity plus its ordered field schema.
type FullWorkflowMetadata struct {
	Metadata
	Fields []Field `json:"fields"`
}

// Validate reports whether m is a well-formed metadata reply: non-empty id
// and, for each Number field, Min <= Max when both are set.
func (m FullWorkflowMetadata) Validate() error {
	if m.ID == "" {
		return ErrInvalidInput("EMPTY_ID", "workflow metadata id must not be empty")
	}
	for _, f := range m.Fields {
		if f.Kind == FieldKindNumber && f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return ErrInvalidInput("INVALID_RANGE",
				fmt.Sprintf("field %q: min %v exceeds max %v", f.Name, *f.Min, *f.Max))
		}
	}
	return nil
}

// DiscoveredWorkflow is a FullWorkflowMetadata plus the absolute path of
// the executable that produced it.
type DiscoveredWorkflow struct {
	FullWorkflowMetadata
	Path string `json:"path"`
}

// ParamMap is the caller-supplied field-name -> value map passed to
// Execute and to argv synthesis.
type ParamMap map[string]string
