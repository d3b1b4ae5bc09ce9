package cmd

import (
	"github.com/spf13/cobra"

	"github.com/relaykit/conductor/internal/runtime"
)

var watchCmd = &cobra.Command{
	Use:   "watch <handle>",
	Short: "Replay an execution's log, then stream new events as they arrive",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	handle := runtime.Handle(args[0])

	backlog, err := rt.GetLogs(handle, 0)
	if err != nil {
		return err
	}
	for _, event := range backlog {
		printEvent(event)
	}

	events, err := rt.Subscribe(handle)
	if err != nil {
		return err
	}
	for event := range events {
		printEvent(event)
	}
	return nil
}
