package network

import (
	"fmt"
	"strings"
)

// Chain identifiers for the Base networks the app talks to.
const (
	MainnetChainID int64 = 8453
	TestnetChainID int64 = 84532
)

// Currency describes a native or token currency triple.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Chain holds the static description of one network.
type Chain struct {
	ID          int64    `json:"chain_id"`
	Name        string   `json:"name"`
	RPCURL      string   `json:"rpc_url"`
	ExplorerURL string   `json:"explorer_url"`
	Native      Currency `json:"native_currency"`
}

// HexID returns the chain id in the 0x-prefixed form wallets expect.
func (c Chain) HexID() string {
	return fmt.Sprintf("0x%x", c.ID)
}

// ChainParams is the payload of a wallet_addEthereumChain request.
type ChainParams struct {
	ChainID           string   `json:"chainId"`
	ChainName         string   `json:"chainName"`
	NativeCurrency    Currency `json:"nativeCurrency"`
	RPCURLs           []string `json:"rpcUrls"`
	BlockExplorerURLs []string `json:"blockExplorerUrls"`
}

// Params converts the chain into add-chain parameters.
func (c Chain) Params() ChainParams {
	return ChainParams{
		ChainID:           c.HexID(),
		ChainName:         c.Name,
		NativeCurrency:    c.Native,
		RPCURLs:           []string{c.RPCURL},
		BlockExplorerURLs: []string{c.ExplorerURL},
	}
}

var ether = Currency{Name: "ETH", Symbol: "ETH", Decimals: 18}

// Mainnet is Base mainnet.
var Mainnet = Chain{
	ID:          MainnetChainID,
	Name:        "Base",
	RPCURL:      "https://mainnet.base.org",
	ExplorerURL: "https://basescan.org",
	Native:      ether,
}

// Testnet is Base Sepolia.
var Testnet = Chain{
	ID:          TestnetChainID,
	Name:        "Base Sepolia",
	RPCURL:      "https://sepolia.base.org",
	ExplorerURL: "https://sepolia.basescan.org",
	Native:      ether,
}

// Token is the ADHD reward token.
var Token = struct {
	Currency
	LocalAddress string `json:"local_address"`
}{
	Currency:     Currency{Name: "ADHD Token", Symbol: "ADHD", Decimals: 18},
	LocalAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
}

// Reward categories.
const (
	RewardExercise    = "exercise"
	RewardNutrition   = "nutrition"
	RewardSleep       = "sleep"
	RewardStreakBonus = "streak_bonus"
)

// Rewards is the fixed reward table in token base units, keyed by activity.
var Rewards = map[string]int64{
	RewardExercise:    1000,
	RewardNutrition:   800,
	RewardSleep:       600,
	RewardStreakBonus: 500,
}

// Features lists the mini-app features advertised to clients.
var Features = []string{
	"wallet-connection",
	"token-rewards",
	"progress-tracking",
	"professional-booking",
}

// Target returns the chain wallets should be switched to. Anything other
// than "testnet" selects mainnet.
func Target(name string) Chain {
	if strings.EqualFold(strings.TrimSpace(name), "testnet") {
		return Testnet
	}
	return Mainnet
}
