package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered workflows",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	workflows := rt.ListWorkflows()
	if len(workflows) == 0 {
		fmt.Println("No workflows discovered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, wf := range workflows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", wf.ID, wf.Name, wf.Description)
	}
	return w.Flush()
}
