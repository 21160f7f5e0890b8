package types

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenDto is one (symbol, chain) price observation as served by GET /tokens.
// Optional fields are nil when the backend omits them.
type TokenDto struct {
	Symbol          string    `json:"symbol"`
	Chain           string    `json:"chain"`
	Name            *string   `json:"name,omitempty"`
	CurrentPrice    float64   `json:"currentPrice"`
	DexPrice        *float64  `json:"dexPrice,omitempty"`
	DexName         *string   `json:"dexName,omitempty"`
	Liquidity       *float64  `json:"liquidity,omitempty"`
	LastUpdated     time.Time `json:"lastUpdated"`
	ContractAddress *string   `json:"contractAddress,omitempty"`
}

// Key returns the "symbol::chain" identity of the observation.
func (t *TokenDto) Key() string {
	return strings.ToUpper(t.Symbol) + "::" + strings.ToLower(t.Chain)
}

// DisplayName returns the token name, falling back to the symbol.
func (t *TokenDto) DisplayName() string {
	if t.Name != nil && *t.Name != "" {
		return *t.Name
	}
	return t.Symbol
}

// Spread returns the percentage difference between the DEX price and the
// current price. ok is false when either price is unusable.
func (t *TokenDto) Spread() (spread float64, ok bool) {
	if t.DexPrice == nil || t.CurrentPrice <= 0 {
		return 0, false
	}
	return (*t.DexPrice - t.CurrentPrice) / t.CurrentPrice * 100, true
}

// NormalizeContractAddress rewrites a valid EVM hex address into its EIP-55
// checksum form. Non-EVM addresses (e.g. Solana base58) are left untouched.
func (t *TokenDto) NormalizeContractAddress() {
	if t.ContractAddress == nil {
		return
	}
	addr := strings.TrimSpace(*t.ContractAddress)
	if common.IsHexAddress(addr) {
		addr = common.HexToAddress(addr).Hex()
	}
	t.ContractAddress = &addr
}

// PricePoint is one sample of GET /tokens/:symbol/history.
type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// TokenSummary holds aggregates over the current token list.
type TokenSummary struct {
	TokenCount   int       `json:"tokenCount"`
	UniqueChains int       `json:"uniqueChains"`
	UniqueTokens int       `json:"uniqueTokens"`
	Chains       []string  `json:"chains"`
	LastUpdated  time.Time `json:"lastUpdated"`
}
