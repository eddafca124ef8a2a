package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskweave",
		Short: "Task dispatch core for build and release automation",
	}
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "emit JSON logs")

	root.AddCommand(
		RunCmd(),
	)
	return root
}
