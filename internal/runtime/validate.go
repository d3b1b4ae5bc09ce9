package runtime

import (
	"fmt"
	"strconv"

	"github.com/relaykit/conductor/internal/core"
)

// ValidateInputs checks params against wf's schema per spec.md §4.7 step
// 1: a missing required field or an out-of-range Number is InvalidInput.
// Unknown field names are permitted for forward compatibility. Whether to
// additionally enforce a field's RequiredForPhases is left to callers that
// know which phase set applies (see DESIGN.md) — ValidateInputs only
// enforces the unconditional Required flag.
func ValidateInputs(wf core.DiscoveredWorkflow, params core.ParamMap) error {
	for _, field := range wf.Fields {
		value, present := params[field.Name]

		if field.Required && (!present || value == "") {
			if field.Default != "" {
				continue
			}
			return core.ErrInvalidInput("MISSING_REQUIRED_FIELD",
				fmt.Sprintf("field %q is required", field.Name))
		}

		if !present || value == "" {
			continue
		}

		if field.Kind == core.FieldKindNumber {
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return core.ErrInvalidInput("INVALID_NUMBER",
					fmt.Sprintf("field %q: %q is not a number", field.Name, value))
			}
			if field.Min != nil && n < *field.Min {
				return core.ErrInvalidInput("NUMBER_OUT_OF_RANGE",
					fmt.Sprintf("field %q: %v is below minimum %v", field.Name, n, *field.Min))
			}
			if field.Max != nil && n > *field.Max {
				return core.ErrInvalidInput("NUMBER_OUT_OF_RANGE",
					fmt.Sprintf("field %q: %v exceeds maximum %v", field.Name, n, *field.Max))
			}
		}

		if field.Kind == core.FieldKindSelect && len(field.Options) > 0 {
			if !contains(field.Options, value) {
				return core.ErrInvalidInput("INVALID_OPTION",
					fmt.Sprintf("field %q: %q is not one of %v", field.Name, value, field.Options))
			}
		}
	}
	return nil
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
