package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	conductorcfg "github.com/relaykit/conductor/internal/config"
)

var configInitPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage conductor's own configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write conductor's default configuration to a project config file",
	RunE: func(_ *cobra.Command, _ []string) error {
		loader := conductorcfg.NewLoader()
		etag, err := loader.WriteDefault(configInitPath)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s (etag %s)\n", configInitPath, etag)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", ".conductor/config.yaml",
		"path to write the default config file to")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
