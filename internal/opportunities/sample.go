package opportunities

import (
	"time"

	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/google/uuid"
)

// sampleNamespace seeds the deterministic IDs of the sample opportunities.
var sampleNamespace = uuid.MustParse("5b0b6f0e-7a8c-4a52-9c1e-3f6d2a9e4b71")

type sampleRow struct {
	symbol, name     string
	from, to         string
	diffUSD, diffPct float64
	gasUSD, score    float64
	flagged          bool
	reasons          []string
}

var sampleRows = []sampleRow{
	{"ETH", "Ethereum", "ethereum", "arbitrum", 18.40, 0.74, 6.10, 82, false, nil},
	{"USDC", "USD Coin", "polygon", "ethereum", 4.25, 0.42, 1.35, 64, false, nil},
	{"WBTC", "Wrapped Bitcoin", "ethereum", "optimism", 96.00, 0.15, 11.80, 71, false, nil},
	{"LINK", "Chainlink", "arbitrum", "polygon", 2.10, 1.18, 0.45, 58, false, nil},
	{"UNI", "Uniswap", "base", "ethereum", 0.90, 0.95, 4.20, 22, false, nil},
	{"PEPE", "Pepe", "ethereum", "bsc", 310.00, 64.00, 3.00, 12, true, []string{"price deviation exceeds 50%", "low liquidity"}},
}

// SampleOpportunities returns the built-in demo data served when the backend
// has never answered. IDs are stable across calls.
func SampleOpportunities() []types.Opportunity {
	now := time.Now().UTC()
	out := make([]types.Opportunity, 0, len(sampleRows))

	for i, row := range sampleRows {
		diffPct := row.diffPct
		net := row.diffUSD - row.gasUSD
		roi := 0.0
		if row.gasUSD > 0 {
			roi = net / row.gasUSD * 100
		}
		updated := now.Add(-time.Duration(i) * time.Minute)
		name := row.name
		flagged := row.flagged

		dto := types.OpportunityDto{
			ID:                 uuid.NewSHA1(sampleNamespace, []byte(row.symbol+":"+row.from+":"+row.to)).String(),
			TokenSymbol:        row.symbol,
			TokenName:          &name,
			ChainFrom:          row.from,
			ChainTo:            row.to,
			PriceDiffUSD:       row.diffUSD,
			PriceDiffPercent:   &diffPct,
			GasCostUSD:         row.gasUSD,
			NetProfitUSD:       net,
			EstimatedProfitUSD: net,
			Score:              row.score,
			ROI:                &roi,
			Flagged:            &flagged,
			FlagReasons:        row.reasons,
			UpdatedAt:          &updated,
		}
		out = append(out, types.NewOpportunity(&dto))
	}

	return out
}
