package setup

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var Formats = []string{"json", "yaml", "toml"}

type Args struct {
	ConfigPath     string
	Format         string
	VerbosityCount int
}

func AddArgs(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Path to a tokenrelay config file")
	cmd.PersistentFlags().String("format", "json", fmt.Sprintf("Output format, one of %v", Formats))
	cmd.PersistentFlags().CountP("verbose", "v", "Increase logging verbosity, may be repeated")
}

func ArgsFromCmd(cmd *cobra.Command) (*Args, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	verbosity, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return nil, err
	}
	format = strings.ToLower(format)
	valid := false
	for _, f := range Formats {
		valid = valid || f == format
	}
	if !valid {
		return nil, fmt.Errorf("invalid format %q, options: %v", format, Formats)
	}
	return &Args{
		ConfigPath:     configPath,
		Format:         format,
		VerbosityCount: verbosity,
	}, nil
}
