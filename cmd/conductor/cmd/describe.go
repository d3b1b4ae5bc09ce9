package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <workflow-id>",
	Short: "Show a workflow's parameter schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(_ *cobra.Command, args []string) error {
	meta, err := rt.GetWorkflowMetadata(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s — %s\n", meta.ID, meta.Name)
	if meta.Description != "" {
		fmt.Println(meta.Description)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tFLAG\tKIND\tREQUIRED\tDEFAULT")
	for _, f := range meta.Fields {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", f.Name, f.CLIArg, f.Kind, f.Required, f.Default)
	}
	return w.Flush()
}
