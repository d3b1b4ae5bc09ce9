package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaykit/conductor/internal/core"
	"github.com/relaykit/conductor/internal/runtime"
)

var runParams []string

var runCmd = &cobra.Command{
	Use:   "run <workflow-id>",
	Short: "Execute a workflow and stream its events",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runParams, "param", nil,
		"parameter in key=value form, repeatable")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	params, err := parseParams(runParams)
	if err != nil {
		return err
	}

	handle, err := rt.Execute(cmd.Context(), args[0], params)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "execution: %s\n", handle)

	events, err := rt.Subscribe(handle)
	if err != nil {
		return err
	}
	for event := range events {
		printEvent(event)
	}

	status, err := rt.Status(handle)
	if err != nil {
		return err
	}
	if status == runtime.StatusFailed {
		return fmt.Errorf("workflow %s failed", args[0])
	}
	return nil
}

func printEvent(event core.Event) {
	fmt.Printf("[%s] %s\n", event.EventType(), eventSummary(event))
}

func eventSummary(event core.Event) string {
	switch e := event.(type) {
	case core.PhaseStartedEvent:
		return fmt.Sprintf("phase %d/%d: %s", e.Phase+1, e.TotalPhases, e.Name)
	case core.PhaseCompletedEvent:
		return fmt.Sprintf("phase %d: %s", e.Phase+1, e.Name)
	case core.PhaseFailedEvent:
		return fmt.Sprintf("phase %d: %s failed: %s", e.Phase+1, e.Name, e.Error)
	case core.TaskStartedEvent:
		return fmt.Sprintf("%s: %s", e.TaskID, e.Description)
	case core.TaskProgressEvent:
		return fmt.Sprintf("%s: %s", e.TaskID, e.Message)
	case core.TaskCompletedEvent:
		return e.TaskID
	case core.TaskFailedEvent:
		return fmt.Sprintf("%s: %s", e.TaskID, e.Error)
	case core.AgentStartedEvent:
		return fmt.Sprintf("%s/%s: %s", e.TaskID, e.AgentName, e.Description)
	case core.AgentMessageEvent:
		return fmt.Sprintf("%s/%s: %s", e.TaskID, e.AgentName, e.Message)
	case core.AgentCompletedEvent:
		return fmt.Sprintf("%s/%s", e.TaskID, e.AgentName)
	case core.AgentFailedEvent:
		return fmt.Sprintf("%s/%s: %s", e.TaskID, e.AgentName, e.Error)
	case core.StateFileCreatedEvent:
		return fmt.Sprintf("%s: %s", e.Phase, e.FilePath)
	case core.RawOutputEvent:
		return e.Line
	default:
		return ""
	}
}

func parseParams(pairs []string) (core.ParamMap, error) {
	params := make(core.ParamMap, len(pairs))
	for _, pair := range pairs {
		key, value, ok := splitParam(pair)
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

func splitParam(pair string) (string, string, bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			return pair[:i], pair[i+1:], true
		}
	}
	return "", "", false
}
