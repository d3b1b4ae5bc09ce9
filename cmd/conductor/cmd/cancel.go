package cmd

import (
	"github.com/spf13/cobra"

	"github.com/relaykit/conductor/internal/runtime"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <handle>",
	Short: "Terminate a running execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(_ *cobra.Command, args []string) error {
	return rt.Cancel(runtime.Handle(args[0]))
}
