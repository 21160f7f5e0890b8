package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/charts"
	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/pkg/types"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printTokens(w io.Writer, toks []types.TokenDto, rates *currency.Table, code string) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "SYMBOL\tCHAIN\tPRICE\tDEX PRICE\tSPREAD\tUPDATED\n")
	fmt.Fprintf(tw, "------\t-----\t-----\t---------\t------\t-------\n")

	for i := range toks {
		tok := &toks[i]

		dexPrice := currency.Placeholder
		if tok.DexPrice != nil {
			dexPrice = rates.Format(*tok.DexPrice, code)
		}

		spread := currency.Placeholder
		if s, ok := tok.Spread(); ok {
			spread = currency.FormatPercent(&s)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tok.Symbol,
			tok.Chain,
			rates.Format(tok.CurrentPrice, code),
			dexPrice,
			spread,
			formatTime(tok.LastUpdated))
	}

	return tw.Flush()
}

func printOpportunities(w io.Writer, opps []types.Opportunity, rates *currency.Table, code string) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "TOKEN\tROUTE\tDIFF\tGAS\tNET PROFIT\tROI\tSCORE\tFLAGS\n")
	fmt.Fprintf(tw, "-----\t-----\t----\t---\t----------\t---\t-----\t-----\n")

	for i := range opps {
		opp := &opps[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.0f\t%s\n",
			opp.TokenSymbol,
			opp.Route,
			rates.Format(opp.PriceDiffUSD, code),
			rates.Format(opp.GasCostUSD, code),
			rates.Format(opp.NetProfitUSD, code),
			roiDisplay(opp),
			opp.Score,
			flagsDisplay(opp))
	}

	return tw.Flush()
}

func printStats(
	w io.Writer,
	stats types.DashboardStats,
	summary types.TokenSummary,
	rates *currency.Table,
	code string,
) error {
	tw := newTable(w)

	if best := stats.BestOpportunity; best != nil {
		fmt.Fprintf(tw, "Best opportunity:\t%s %s\t%s net\n",
			best.TokenSymbol, best.Route, rates.Format(best.NetProfitUSD, code))
	} else {
		fmt.Fprintf(tw, "Best opportunity:\t%s\n", currency.Placeholder)
	}

	if top := stats.TopToken; top != nil {
		avg := top.AverageSpread
		fmt.Fprintf(tw, "Top token:\t%s\t%s avg spread on %s\n",
			top.Symbol, currency.FormatPercent(&avg), strings.Join(top.Chains, ", "))
	} else {
		fmt.Fprintf(tw, "Top token:\t%s\n", currency.Placeholder)
	}

	fmt.Fprintf(tw, "Tokens tracked:\t%d (%d unique)\n", summary.TokenCount, summary.UniqueTokens)
	fmt.Fprintf(tw, "Chains:\t%d\t%s\n", summary.UniqueChains, strings.Join(summary.Chains, ", "))
	fmt.Fprintf(tw, "Last updated:\t%s\n", formatTime(summary.LastUpdated))

	return tw.Flush()
}

func printRates(w io.Writer, rates *currency.Table) error {
	fmt.Fprintf(w, "Source: %s, fetched %s\n\n", rates.Source, formatTime(rates.FetchedAt))

	codes := make([]string, 0, len(rates.Rates))
	for code := range rates.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	tw := newTable(w)
	fmt.Fprintf(tw, "CODE\tSYMBOL\tRATE\n")
	fmt.Fprintf(tw, "----\t------\t----\n")
	for _, code := range codes {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\n", code, strings.TrimSpace(currency.Symbol(code)), rates.Rates[code])
	}

	return tw.Flush()
}

func printHistory(w io.Writer, history *charts.History, rates *currency.Table, code string) error {
	if history.Notice != "" {
		fmt.Fprintf(w, "%s\n", history.Notice)
		return nil
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "CHAIN\tPOINTS\tFIRST\tLAST\tCHANGE\n")
	fmt.Fprintf(tw, "-----\t------\t-----\t----\t------\n")

	for i := range history.Series {
		series := &history.Series[i]
		if len(series.Data) == 0 {
			fmt.Fprintf(tw, "%s\t0\t%s\t%s\t%s\n",
				series.Chain, currency.Placeholder, currency.Placeholder, series.Message)
			continue
		}

		first := series.Data[0]
		last := series.Data[len(series.Data)-1]
		change := currency.Placeholder
		if first != 0 {
			pct := (last - first) / first * 100
			change = currency.FormatPercent(&pct)
		}

		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			series.Chain,
			len(series.Data),
			rates.Format(first, code),
			rates.Format(last, code),
			change)
	}

	return tw.Flush()
}

func roiDisplay(opp *types.Opportunity) string {
	if !opp.HasROI {
		return currency.Placeholder
	}
	roi := opp.ROI
	return currency.FormatPercent(&roi)
}

func flagsDisplay(opp *types.Opportunity) string {
	if !opp.Flagged {
		return ""
	}
	if len(opp.FlagReasons) == 0 {
		return "flagged"
	}
	return "flagged: " + strings.Join(opp.FlagReasons, "; ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return currency.Placeholder
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
