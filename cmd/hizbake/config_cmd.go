package main

import (
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var flags bakeFlags

	cmd := &cobra.Command{
		Use:   "config [scene]",
		Short: "Print the effective bake configuration as TOML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd, args)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	flags.register(cmd)
	return cmd
}
