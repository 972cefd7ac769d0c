package commands

import (
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/cmd/relay/setup"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

type DerivedAddress struct {
	Address string `json:"address" yaml:"address" toml:"address"`
	Bump    uint8  `json:"bump" yaml:"bump" toml:"bump"`
}

type Derivation struct {
	Program          string                    `json:"program" yaml:"program" toml:"program"`
	SenderConfig     DerivedAddress            `json:"sender_config" yaml:"sender_config" toml:"sender_config"`
	RedeemerConfig   DerivedAddress            `json:"redeemer_config" yaml:"redeemer_config" toml:"redeemer_config"`
	ForeignContracts map[string]DerivedAddress `json:"foreign_contracts,omitempty" yaml:"foreign_contracts,omitempty" toml:"foreign_contracts,omitempty"`
	TmpTokenAccount  *DerivedAddress           `json:"tmp_token_account,omitempty" yaml:"tmp_token_account,omitempty" toml:"tmp_token_account,omitempty"`
	Message          *DerivedAddress           `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
}

func CmdDerive() *cobra.Command {
	var chains []string
	var mint string
	var sequence int64
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the addresses of the hello token program's records.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			relayCfg := setup.UnwrapConfig(cmd.Context())
			n, err := setup.NewNetwork(relayCfg)
			if err != nil {
				return err
			}
			hp := n.HelloToken
			derivation := &Derivation{
				Program:          hp.ID.String(),
				SenderConfig:     derived(hp.SenderConfigAddress().Address, hp.SenderConfigAddress().Bump),
				RedeemerConfig:   derived(hp.RedeemerConfigAddress().Address, hp.RedeemerConfigAddress().Bump),
				ForeignContracts: map[string]DerivedAddress{},
			}

			if len(chains) == 0 {
				foreign, err := relayCfg.Foreign()
				if err != nil {
					return err
				}
				for _, fc := range foreign {
					chains = append(chains, fc.Chain.String())
				}
			}
			for _, c := range chains {
				chain, err := relay.ParseChainID(c)
				if err != nil {
					return err
				}
				d := hp.ForeignContractAddress(chain)
				derivation.ForeignContracts[chain.String()] = derived(d.Address, d.Bump)
			}
			if mint != "" {
				mintKey, err := solana.PublicKeyFromBase58(mint)
				if err != nil {
					return fmt.Errorf("invalid mint: %v", err)
				}
				d := hp.TmpTokenAddress(mintKey)
				derivation.TmpTokenAccount = ptr(derived(d.Address, d.Bump))
			}
			if sequence >= 0 {
				d := hp.MessageAddress(uint64(sequence))
				derivation.Message = ptr(derived(d.Address, d.Bump))
			}
			return Print(cmd.OutOrStdout(), setup.UnwrapArgs(cmd.Context()).Format, derivation)
		},
	}
	cmd.Flags().StringSliceVar(&chains, "chain", nil, "Foreign chain to derive the contract record for, defaults to the configured foreign contracts")
	cmd.Flags().StringVar(&mint, "mint", "", "Mint to derive the temporary token account for")
	cmd.Flags().Int64Var(&sequence, "sequence", -1, "Token bridge sequence to derive the outbound message for")
	return cmd
}

func derived(address solana.PublicKey, bump uint8) DerivedAddress {
	return DerivedAddress{Address: address.String(), Bump: bump}
}

func ptr[T any](v T) *T {
	return &v
}

