// Package pattern labels smart-money price patterns over a candle series.
//
// Every function here is pure: inputs are never modified and no state is kept
// between calls, so the same series may be labeled from several goroutines.
package pattern

import "PatternScope/internal/model"

// Column names produced by LabelAll.
const (
	ColumnFVG           = "fvg"
	ColumnIFVG          = "ifvg"
	ColumnOrderBlock    = "order_block"
	ColumnBreakerBlock  = "breaker_block"
	ColumnSellLiquidity = "sell_liquidity"
	ColumnBuyLiquidity  = "buy_liquidity"
)

// MinCandles is the shortest series on which any predicate can hold.
const MinCandles = 4

// LastEvaluable returns the newest index every column can mark in a series of
// n candles, or -1 when the series is too short.
func LastEvaluable(n int) int {
	if n < MinCandles {
		return -1
	}
	return n - 2
}

// Predicate reports whether the pattern holds at candle i.
// Label only calls it for 2 <= i < len(s)-1.
type Predicate func(s model.Series, i int) bool

// Label evaluates pred over every candle with two predecessors and one
// successor and marks the candle's close where it holds.
func Label(s model.Series, name string, pred Predicate) model.Column {
	col := model.NewColumn(name, len(s))
	for i := 2; i < len(s)-1; i++ {
		if pred(s, i) {
			col.Set(i, s[i].Close)
		}
	}
	return col
}

// IsFVG detects a fair-value gap: candle i trades entirely below the previous
// low and the next candle stays below the low two bars back.
func IsFVG(s model.Series, i int) bool {
	return s[i-1].Low > s[i].High && s[i-2].Low > s[i+1].High
}

// IsIFVG detects an inverse fair-value gap. It currently applies the same
// test as IsFVG.
func IsIFVG(s model.Series, i int) bool {
	return IsFVG(s, i)
}

// IsOrderBlock detects a bearish candle followed by a bullish one.
func IsOrderBlock(s model.Series, i int) bool {
	return s[i].Bearish() && s[i+1].Bullish()
}

// IsBreakerBlock detects a bullish candle followed by a bearish one.
func IsBreakerBlock(s model.Series, i int) bool {
	return s[i].Bullish() && s[i+1].Bearish()
}

// Definition binds a column name to its predicate.
type Definition struct {
	Name      string
	Predicate Predicate
}

// Definitions lists the predicate-based columns in output order.
var Definitions = []Definition{
	{ColumnFVG, IsFVG},
	{ColumnIFVG, IsIFVG},
	{ColumnOrderBlock, IsOrderBlock},
	{ColumnBreakerBlock, IsBreakerBlock},
}

// LabelAll runs every predicate plus the liquidity sweep over s.
func LabelAll(s model.Series) model.Annotations {
	ann := make(model.Annotations, 0, len(Definitions)+2)
	for _, d := range Definitions {
		ann = append(ann, Label(s, d.Name, d.Predicate))
	}
	sell, buy := FindLiquidity(s)
	return append(ann, sell, buy)
}
