package notifier

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"PatternScope/internal/model"
	"PatternScope/internal/pattern"
	"PatternScope/internal/trader"
)

var columnLabels = map[string]string{
	pattern.ColumnFVG:           "Fair value gap",
	pattern.ColumnIFVG:          "Inverse fair value gap",
	pattern.ColumnOrderBlock:    "Order block",
	pattern.ColumnBreakerBlock:  "Breaker block",
	pattern.ColumnSellLiquidity: "Sell-side liquidity",
	pattern.ColumnBuyLiquidity:  "Buy-side liquidity",
}

func label(column string) string {
	if l, ok := columnLabels[column]; ok {
		return l
	}
	return column
}

// LatestHits returns the marks on the newest bar every column can evaluate.
func LatestHits(a *model.Analysis) []model.Hit {
	return a.HitsAt(pattern.LastEvaluable(len(a.Series)))
}

// FormatSignal formats the patterns found on the latest evaluable bar.
// Returns "" when there is nothing to report.
func FormatSignal(a *model.Analysis) string {
	hits := LatestHits(a)
	if len(hits) == 0 {
		return ""
	}
	bar := a.Series[hits[0].Index]

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s %s</b> | %s\n\n", html.EscapeString(a.Symbol), a.Timeframe, bar.Time.UTC().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("O %g  H %g  L %g  C %g\n", bar.Open, bar.High, bar.Low, bar.Close))
	for _, h := range hits {
		b.WriteString(fmt.Sprintf("  • %s @ %g\n", label(h.Column), h.Value))
	}
	return b.String()
}

// FormatSummary formats hit counts for one analysis.
func FormatSummary(a *model.Analysis) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s %s</b> | %d bars from %s\n", html.EscapeString(a.Symbol), a.Timeframe, len(a.Series), a.Source))
	if n := len(a.Series); n > 0 {
		last := a.Series[n-1]
		b.WriteString(fmt.Sprintf("Last bar: %s close %g\n", last.Time.UTC().Format("2006-01-02 15:04"), last.Close))
	}
	for _, col := range a.Annotations {
		b.WriteString(fmt.Sprintf("  %s: %d\n", label(col.Name), col.Count()))
	}
	if hits := LatestHits(a); len(hits) > 0 {
		names := make([]string, len(hits))
		for i, h := range hits {
			names[i] = label(h.Column)
		}
		b.WriteString(fmt.Sprintf("Latest: %s\n", strings.Join(names, ", ")))
	}
	b.WriteString(fmt.Sprintf("Scanned %s", a.CreatedAt.UTC().Format(time.RFC3339)))
	return b.String()
}

// FormatScanError formats a failed scan.
func FormatScanError(symbol string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s</b> scan failed: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// FormatOrder formats the outcome of an order request.
func FormatOrder(symbol string, typ model.OrderType, lots float64, res *model.OrderResult, err error) string {
	head := fmt.Sprintf("%s %s %g lots", strings.ToUpper(typ.String()), html.EscapeString(symbol), lots)
	var rej *trader.RejectError
	switch {
	case errors.As(err, &rej):
		return fmt.Sprintf("❌ %s rejected: retcode %d (%s)", head, rej.Retcode, html.EscapeString(rej.Comment))
	case err != nil:
		return fmt.Sprintf("❌ %s failed: %s", head, html.EscapeString(err.Error()))
	case res == nil:
		return fmt.Sprintf("❌ %s: no result", head)
	}
	return fmt.Sprintf("✅ %s filled at %g, ticket %d", head, res.Price, res.Order)
}

// FormatSymbols formats the list of scanned symbols.
func FormatSymbols(symbols []string, tf model.Timeframe) string {
	if len(symbols) == 0 {
		return "No symbols configured."
	}
	return fmt.Sprintf("Scanning %s on %s", html.EscapeString(strings.Join(symbols, ", ")), tf)
}

// FormatHelp lists the bot commands.
func FormatHelp(trading bool) string {
	var b strings.Builder
	b.WriteString("<b>PatternScope</b>\n")
	b.WriteString("/scan [SYMBOL] - scan now\n")
	b.WriteString("/last [SYMBOL] - latest scan summary\n")
	b.WriteString("/symbols - scanned symbols\n")
	if trading {
		b.WriteString("/buy SYMBOL LOTS - market buy\n")
		b.WriteString("/sell SYMBOL LOTS - market sell\n")
	}
	return b.String()
}
