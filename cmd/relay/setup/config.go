package setup

import (
	"context"
	"os"

	"github.com/cordialsys/tokenrelay/config"
	"github.com/cordialsys/tokenrelay/hellotoken"
	"github.com/cordialsys/tokenrelay/config/constants"
	"github.com/cordialsys/tokenrelay/localnet"
	"github.com/sirupsen/logrus"
)

type ContextKey string

const ContextArgs ContextKey = "args"
const ContextConfig ContextKey = "config"

func CreateContext(ctx context.Context, args *Args, relayCfg *config.Relay) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ContextArgs, args)
	ctx = context.WithValue(ctx, ContextConfig, relayCfg)
	return ctx
}

func UnwrapArgs(ctx context.Context) *Args {
	return ctx.Value(ContextArgs).(*Args)
}

func UnwrapConfig(ctx context.Context) *config.Relay {
	return ctx.Value(ContextConfig).(*config.Relay)
}

// LoadConfig reads the relay config. --config takes precedence over the
// environment.
func LoadConfig(args *Args) (*config.Relay, error) {
	if args.ConfigPath != "" {
		if err := os.Setenv(constants.ConfigEnv, args.ConfigPath); err != nil {
			return nil, err
		}
	}
	return config.LoadRelay()
}

// ConfigureLogger applies the config and environment, then -v flags on top.
func ConfigureLogger(args *Args, relayCfg *config.Relay) {
	config.ConfigureLogger(relayCfg.LogLevel)
	switch {
	case args.VerbosityCount == 0 && relayCfg.LogLevel == "" && os.Getenv(config.LogLevelEnv) == "":
		// keep command output readable
		logrus.SetLevel(logrus.WarnLevel)
	case args.VerbosityCount == 1:
		logrus.SetLevel(logrus.InfoLevel)
	case args.VerbosityCount == 2:
		logrus.SetLevel(logrus.DebugLevel)
	case args.VerbosityCount >= 3:
		logrus.SetLevel(logrus.TraceLevel)
	}
}

// NewNetwork deploys a local network with the configured chain and programs.
func NewNetwork(relayCfg *config.Relay, options ...hellotoken.Option) (*localnet.Network, error) {
	chain, err := relayCfg.ChainID()
	if err != nil {
		return nil, err
	}
	ids, err := relayCfg.ProgramIDs()
	if err != nil {
		return nil, err
	}
	cfg := localnet.DefaultConfig()
	cfg.ChainID = chain
	cfg.WormholeProgramID = ids.Wormhole
	cfg.TokenBridgeProgramID = ids.TokenBridge
	cfg.HelloTokenProgramID = ids.HelloToken
	cfg.WormholeFee = relayCfg.WormholeFee
	return localnet.New(cfg, options...)
}
