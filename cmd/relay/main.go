package main

import (
	"os"

	"github.com/cordialsys/tokenrelay/cmd/relay/commands"
	"github.com/cordialsys/tokenrelay/cmd/relay/setup"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func CmdRelay() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Derive addresses and simulate token relays on a local network",
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			args, err := setup.ArgsFromCmd(cmd)
			if err != nil {
				return err
			}
			relayCfg, err := setup.LoadConfig(args)
			if err != nil {
				return err
			}
			setup.ConfigureLogger(args, relayCfg)

			logrus.WithFields(logrus.Fields{
				"chain":       relayCfg.Chain,
				"hello_token": relayCfg.HelloTokenProgramID,
			}).Debug("config")
			cmd.SetContext(setup.CreateContext(cmd.Context(), args, relayCfg))
			return nil
		},
	}
	setup.AddArgs(cmd)

	cmd.AddCommand(commands.CmdConfig())
	cmd.AddCommand(commands.CmdDerive())
	cmd.AddCommand(commands.CmdSimulate())
	return cmd
}

func main() {
	rootCmd := CmdRelay()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
