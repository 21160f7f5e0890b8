// Package stats derives dashboard statistics from the polled lists. All
// functions are pure and safe to call on every update.
package stats

import (
	"strings"

	"github.com/arbitrage-pro/dashboard/pkg/types"
)

// Derive computes the best opportunity and the top token by spread.
//
// Flagged (anomalous) opportunities are ignored as long as at least one
// unflagged opportunity exists. BestOpportunity is the remaining opportunity
// with the highest positive net profit, nil if none is profitable. TopToken
// is the symbol with the highest mean positive PriceDiffPercent; symbols with
// no positive spread never qualify. Ties keep the first-seen symbol.
func Derive(opps []types.Opportunity) types.DashboardStats {
	pool := Unflagged(opps)
	if len(pool) == 0 {
		pool = opps
	}

	return types.DashboardStats{
		BestOpportunity: BestOpportunity(pool),
		TopToken:        TopToken(pool),
	}
}

// Unflagged returns the opportunities not flagged as anomalous.
func Unflagged(opps []types.Opportunity) []types.Opportunity {
	out := make([]types.Opportunity, 0, len(opps))
	for i := range opps {
		if !opps[i].Flagged {
			out = append(out, opps[i])
		}
	}
	return out
}

// BestOpportunity returns a copy of the opportunity with the maximum positive
// net profit, regardless of score.
func BestOpportunity(opps []types.Opportunity) *types.Opportunity {
	var best *types.Opportunity
	for i := range opps {
		if opps[i].NetProfitUSD <= 0 {
			continue
		}
		if best == nil || opps[i].NetProfitUSD > best.NetProfitUSD {
			c := opps[i]
			best = &c
		}
	}
	return best
}

type spreadAgg struct {
	sum    float64
	count  int
	chains []string
	seen   map[string]struct{}
}

func (a *spreadAgg) addChain(chain string) {
	if chain == "" {
		return
	}
	key := strings.ToLower(chain)
	if _, ok := a.seen[key]; ok {
		return
	}
	a.seen[key] = struct{}{}
	a.chains = append(a.chains, chain)
}

// TopToken groups opportunities by symbol and picks the highest mean positive
// spread. Chains lists every chain the symbol's opportunities touch.
func TopToken(opps []types.Opportunity) *types.TopToken {
	groups := make(map[string]*spreadAgg)
	var order []string

	for i := range opps {
		o := &opps[i]
		agg, ok := groups[o.TokenSymbol]
		if !ok {
			agg = &spreadAgg{seen: make(map[string]struct{})}
			groups[o.TokenSymbol] = agg
			order = append(order, o.TokenSymbol)
		}

		if o.HasPriceDiffPercent && o.PriceDiffPercent > 0 {
			agg.sum += o.PriceDiffPercent
			agg.count++
		}
		agg.addChain(o.ChainFrom)
		agg.addChain(o.ChainTo)
	}

	var top *types.TopToken
	for _, symbol := range order {
		agg := groups[symbol]
		if agg.count == 0 {
			continue
		}
		avg := agg.sum / float64(agg.count)
		if top == nil || avg > top.AverageSpread {
			top = &types.TopToken{
				Symbol:        symbol,
				AverageSpread: avg,
				Chains:        agg.chains,
			}
		}
	}

	return top
}

// Summarize aggregates the token list for the dashboard header.
func Summarize(tokens []types.TokenDto) types.TokenSummary {
	summary := types.TokenSummary{
		TokenCount: len(tokens),
		Chains:     []string{},
	}

	chains := make(map[string]struct{})
	symbols := make(map[string]struct{})

	for i := range tokens {
		t := &tokens[i]

		chainKey := strings.ToLower(t.Chain)
		if _, ok := chains[chainKey]; !ok && chainKey != "" {
			chains[chainKey] = struct{}{}
			summary.Chains = append(summary.Chains, t.Chain)
		}
		symbols[strings.ToUpper(t.Symbol)] = struct{}{}

		if t.LastUpdated.After(summary.LastUpdated) {
			summary.LastUpdated = t.LastUpdated
		}
	}

	summary.UniqueChains = len(chains)
	summary.UniqueTokens = len(symbols)

	return summary
}
