package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/relaykit/conductor/internal/core"
	"github.com/relaykit/conductor/internal/runtime"
)

// MetadataFlag is the hidden single-argument probe a discoverer invokes a
// candidate with. It is intercepted ahead of normal flag parsing so it
// works regardless of which fields the workflow itself declares required.
const MetadataFlag = "--workflow-metadata"

// RunFunc is a workflow's entry point: Main hands it the validated
// parameter map built from the process's actual argv.
type RunFunc func(ctx context.Context, params core.ParamMap) error

// Main is the CLI bootstrap every workflow binary's func main calls. It
// answers the metadata probe directly off os.Args, builds an
// github.com/urfave/cli/v3 command from meta's field schema for normal
// invocations, validates the parsed params against that same schema, and
// calls run. A validation or run failure exits the process non-zero,
// matching the workflow binary contract's "non-zero on failure".
func Main(meta core.FullWorkflowMetadata, run RunFunc) {
	if len(os.Args) >= 2 && os.Args[1] == MetadataFlag {
		emitMetadata(meta)
		os.Exit(0)
	}

	cmd := &cli.Command{
		Name:  meta.ID,
		Usage: meta.Description,
		Flags: buildFlags(meta.Fields),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			params := extractParams(meta.Fields, cmd)
			wf := core.DiscoveredWorkflow{FullWorkflowMetadata: meta}
			if err := runtime.ValidateInputs(wf, params); err != nil {
				return err
			}
			return run(ctx, params)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func emitMetadata(meta core.FullWorkflowMetadata) {
	data, err := json.Marshal(meta)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: marshaling metadata:", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
	os.Stdout.Write([]byte("\n"))
}

// buildFlags turns a field schema into the urfave/cli flag set: Number
// fields become Float64Flag, everything else (Text, FilePath, Select,
// PhaseSelector, StateFile) is a free-form StringFlag — those kinds all
// carry a single string CLI value, differing only in how a consumer-side
// UI would render an input widget for them.
func buildFlags(fields []core.Field) []cli.Flag {
	flags := make([]cli.Flag, 0, len(fields))
	for _, f := range fields {
		name := flagName(f.CLIArg)
		switch f.Kind {
		case core.FieldKindNumber:
			flags = append(flags, &cli.Float64Flag{Name: name, Usage: f.Description})
		default:
			flags = append(flags, &cli.StringFlag{Name: name, Usage: f.Description, Value: f.Default})
		}
	}
	return flags
}

func extractParams(fields []core.Field, cmd *cli.Command) core.ParamMap {
	params := make(core.ParamMap, len(fields))
	for _, f := range fields {
		name := flagName(f.CLIArg)
		if !cmd.IsSet(name) && f.Default == "" {
			continue
		}
		switch f.Kind {
		case core.FieldKindNumber:
			params[f.Name] = strconv.FormatFloat(cmd.Float64(name), 'g', -1, 64)
		default:
			params[f.Name] = cmd.String(name)
		}
	}
	return params
}

// flagName strips the leading dashes off a schema's cli_arg spelling
// (e.g. "--target" -> "target") to get the bare name urfave/cli expects.
func flagName(cliArg string) string {
	return strings.TrimLeft(cliArg, "-")
}
