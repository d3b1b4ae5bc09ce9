package cmd

import (
	"github.com/spf13/cobra"

	"github.com/relaykit/conductor/internal/runtime"
)

var (
	logsLimit  int
	logsExport string
)

var logsCmd = &cobra.Command{
	Use:   "logs <handle>",
	Short: "Print an execution's buffered event log",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().IntVar(&logsLimit, "limit", 0, "maximum number of events to print (0 = all)")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "write a PersistedExecution JSON snapshot to this path instead of printing")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(_ *cobra.Command, args []string) error {
	handle := runtime.Handle(args[0])

	if logsExport != "" {
		return rt.Export(handle, logsExport)
	}

	events, err := rt.GetLogs(handle, logsLimit)
	if err != nil {
		return err
	}
	for _, event := range events {
		printEvent(event)
	}
	return nil
}
