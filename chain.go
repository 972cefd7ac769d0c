package tokenrelay

import (
	"fmt"
	"strconv"
	"strings"
)

// ChainID is the 16-bit chain identifier used by the messaging layer.
type ChainID uint16

const (
	ChainUnset     ChainID = 0
	ChainSolana    ChainID = 1
	ChainEthereum  ChainID = 2
	ChainTerra     ChainID = 3
	ChainBSC       ChainID = 4
	ChainPolygon   ChainID = 5
	ChainAvalanche ChainID = 6
	ChainOasis     ChainID = 7
	ChainAlgorand  ChainID = 8
	ChainAurora    ChainID = 9
	ChainFantom    ChainID = 10
	ChainKarura    ChainID = 11
	ChainAcala     ChainID = 12
	ChainKlaytn    ChainID = 13
	ChainCelo      ChainID = 14
	ChainNear      ChainID = 15
	ChainMoonbeam  ChainID = 16
	ChainTerra2    ChainID = 18
	ChainInjective ChainID = 19
	ChainSui       ChainID = 21
	ChainAptos     ChainID = 22
	ChainArbitrum  ChainID = 23
	ChainOptimism  ChainID = 24
	ChainBase      ChainID = 30
)

var chainNames = map[ChainID]string{
	ChainSolana:    "solana",
	ChainEthereum:  "ethereum",
	ChainTerra:     "terra",
	ChainBSC:       "bsc",
	ChainPolygon:   "polygon",
	ChainAvalanche: "avalanche",
	ChainOasis:     "oasis",
	ChainAlgorand:  "algorand",
	ChainAurora:    "aurora",
	ChainFantom:    "fantom",
	ChainKarura:    "karura",
	ChainAcala:     "acala",
	ChainKlaytn:    "klaytn",
	ChainCelo:      "celo",
	ChainNear:      "near",
	ChainMoonbeam:  "moonbeam",
	ChainTerra2:    "terra2",
	ChainInjective: "injective",
	ChainSui:       "sui",
	ChainAptos:     "aptos",
	ChainArbitrum:  "arbitrum",
	ChainOptimism:  "optimism",
	ChainBase:      "base",
}

func (c ChainID) String() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint16(c))
}

// ParseChainID accepts either a chain name ("ethereum") or its numeric id ("2").
func ParseChainID(s string) (ChainID, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return ChainID(n), nil
	}
	for id, name := range chainNames {
		if strings.EqualFold(name, s) {
			return id, nil
		}
	}
	return ChainUnset, fmt.Errorf("unknown chain: %q", s)
}
