// Command hizbake bakes Hi-Z occlusion datasets from glTF scenes.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hizbake",
		Short:         "Bake Hi-Z occlusion datasets from glTF scenes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newBakeCmd(), newInspectCmd(), newConfigCmd())
	return root
}
