// Package network knows the chains walletkit expects to see and derives
// the presentation theme from the active chain.
package network

import (
	"slices"

	"github.com/kbukum/walletkit/wallet"
)

// Theme is a presentation theme keyed by chain.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeSonic   Theme = "sonic"
)

// Well-known chain IDs.
const (
	Ethereum wallet.ChainID = 1
	Optimism wallet.ChainID = 10
	Sonic    wallet.ChainID = 146
	Fantom   wallet.ChainID = 250
	Base     wallet.ChainID = 8453
	Arbitrum wallet.ChainID = 42161
)

// Chain describes a known network.
type Chain struct {
	ID       wallet.ChainID `json:"id"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Explorer string         `json:"explorer,omitempty"`
}

var chains = map[wallet.ChainID]Chain{
	Ethereum: {ID: Ethereum, Name: "Ethereum", Symbol: "ETH", Explorer: "https://etherscan.io"},
	Optimism: {ID: Optimism, Name: "OP Mainnet", Symbol: "ETH", Explorer: "https://optimistic.etherscan.io"},
	Sonic:    {ID: Sonic, Name: "Sonic", Symbol: "S", Explorer: "https://sonicscan.org"},
	Fantom:   {ID: Fantom, Name: "Fantom Opera", Symbol: "FTM", Explorer: "https://ftmscan.com"},
	Base:     {ID: Base, Name: "Base", Symbol: "ETH", Explorer: "https://basescan.org"},
	Arbitrum: {ID: Arbitrum, Name: "Arbitrum One", Symbol: "ETH", Explorer: "https://arbiscan.io"},
}

// Lookup returns the chain with id, if known.
func Lookup(id wallet.ChainID) (Chain, bool) {
	c, ok := chains[id]
	return c, ok
}

// Name returns the chain's display name, or its decimal id when unknown.
func Name(id wallet.ChainID) string {
	if c, ok := chains[id]; ok {
		return c.Name
	}
	return id.String()
}

// Known returns every known chain ordered by id.
func Known() []Chain {
	out := make([]Chain, 0, len(chains))
	for _, c := range chains {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Chain) int { return int(a.ID) - int(b.ID) })
	return out
}

// ThemeFor returns the theme for a chain.
func ThemeFor(id wallet.ChainID) Theme {
	if id == Sonic {
		return ThemeSonic
	}
	return ThemeDefault
}
