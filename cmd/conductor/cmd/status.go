package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaykit/conductor/internal/runtime"
)

var statusCmd = &cobra.Command{
	Use:   "status <handle>",
	Short: "Show one execution's current status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, args []string) error {
	handle := runtime.Handle(args[0])
	status, err := rt.Status(handle)
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}
