package commands

import (
	"github.com/cordialsys/tokenrelay/cmd/relay/setup"
	"github.com/spf13/cobra"
)

func CmdConfig() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the loaded configuration, including defaults.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			relayCfg := setup.UnwrapConfig(cmd.Context())
			return Print(cmd.OutOrStdout(), setup.UnwrapArgs(cmd.Context()).Format, relayCfg)
		},
	}
}
