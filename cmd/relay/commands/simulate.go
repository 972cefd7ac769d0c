package commands

import (
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/cmd/relay/setup"
	"github.com/cordialsys/tokenrelay/config"
	"github.com/cordialsys/tokenrelay/hellotoken"
	"github.com/cordialsys/tokenrelay/localnet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Simulations wraps the results of several runs; toml has no top level arrays.
type Simulations struct {
	Runs []*localnet.ScenarioResult `json:"runs" yaml:"runs" toml:"runs"`
}

func CmdSimulate() *cobra.Command {
	var amount string
	var decimals uint8
	var relayed bool
	var chain string
	var runs int
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send tokens to a foreign contract and redeem a transfer back on a local network.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			relayCfg := setup.UnwrapConfig(cmd.Context())
			scenario, err := scenarioFromConfig(relayCfg, chain)
			if err != nil {
				return err
			}
			human, err := relay.NewAmountHumanReadableFromStr(amount)
			if err != nil {
				return fmt.Errorf("invalid amount: %v", err)
			}
			scenario.Amount, err = human.ToBlockchain(decimals)
			if err != nil {
				return err
			}
			scenario.Decimals = decimals
			scenario.Relayed = relayed
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}

			registry := prometheus.NewRegistry()
			metrics := hellotoken.NewMetrics(registry)
			results := make([]*localnet.ScenarioResult, runs)
			group, ctx := errgroup.WithContext(cmd.Context())
			for i := range results {
				group.Go(func() error {
					n, err := setup.NewNetwork(relayCfg, hellotoken.WithMetrics(metrics))
					if err != nil {
						return err
					}
					results[i], err = scenario.Run(ctx, n)
					if err != nil {
						return fmt.Errorf("run %d: %w", i, err)
					}
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}
			logMetrics(registry)

			format := setup.UnwrapArgs(cmd.Context()).Format
			if runs == 1 {
				return Print(cmd.OutOrStdout(), format, results[0])
			}
			return Print(cmd.OutOrStdout(), format, Simulations{Runs: results})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "0.001", "Amount to send, in whole tokens")
	cmd.Flags().Uint8Var(&decimals, "decimals", 6, "Decimals of the simulated mint")
	cmd.Flags().BoolVar(&relayed, "relayed", false, "Have a third party redeem and collect the relayer fee")
	cmd.Flags().StringVar(&chain, "chain", "", "Configured foreign chain to use, defaults to the first one")
	cmd.Flags().IntVar(&runs, "runs", 1, "Number of independent networks to simulate concurrently")
	return cmd
}

func logMetrics(registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		logrus.WithError(err).Warn("could not gather metrics")
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			fields := logrus.Fields{"value": metric.GetCounter().GetValue()}
			for _, label := range metric.GetLabel() {
				fields[label.GetName()] = label.GetValue()
			}
			logrus.WithFields(fields).Info(family.GetName())
		}
	}
}

func scenarioFromConfig(relayCfg *config.Relay, chain string) (localnet.Scenario, error) {
	scenario := localnet.DefaultScenario()
	fee, precision, err := relayCfg.RelayerFeeFraction()
	if err != nil {
		return scenario, err
	}
	scenario.RelayerFee = fee
	scenario.RelayerFeePrecision = precision

	foreign, err := relayCfg.Foreign()
	if err != nil {
		return scenario, err
	}
	if chain == "" {
		if len(foreign) > 0 {
			scenario.ForeignChain = foreign[0].Chain
			scenario.ForeignContract = foreign[0].Address
			scenario.ForeignTokenBridge = foreign[0].TokenBridge
		}
		return scenario, nil
	}
	id, err := relay.ParseChainID(chain)
	if err != nil {
		return scenario, err
	}
	for _, fc := range foreign {
		if fc.Chain == id {
			scenario.ForeignChain = fc.Chain
			scenario.ForeignContract = fc.Address
			scenario.ForeignTokenBridge = fc.TokenBridge
			return scenario, nil
		}
	}
	return scenario, fmt.Errorf("no foreign contract configured for %s", id)
}
