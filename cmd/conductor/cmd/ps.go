package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/relaykit/conductor/internal/runtime"
)

var (
	psWorkflowID string
	psStatus     string
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List executions",
	RunE:  runPs,
}

func init() {
	psCmd.Flags().StringVar(&psWorkflowID, "workflow", "", "filter by workflow id")
	psCmd.Flags().StringVar(&psStatus, "status", "", "filter by status (running, completed, failed)")
	rootCmd.AddCommand(psCmd)
}

func runPs(_ *cobra.Command, _ []string) error {
	filter := runtime.ExecutionFilter{
		WorkflowID: psWorkflowID,
		Status:     runtime.Status(psStatus),
	}
	summaries := rt.ListExecutions(0, 0, filter)
	if len(summaries) == 0 {
		fmt.Println("No executions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tWORKFLOW\tSTATUS\tSTARTED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Handle, s.WorkflowID, s.Status, s.StartTime.Format("15:04:05"))
	}
	return w.Flush()
}
