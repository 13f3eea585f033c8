package pattern

import "PatternScope/internal/model"

// FindLiquidity flags sell-side liquidity where a candle's low undercuts the
// previous low, and buy-side liquidity where its high exceeds the previous
// high. Marked slots carry that low or high. The first candle is never flagged.
func FindLiquidity(s model.Series) (sell, buy model.Column) {
	sell = model.NewColumn(ColumnSellLiquidity, len(s))
	buy = model.NewColumn(ColumnBuyLiquidity, len(s))
	for i := 1; i < len(s); i++ {
		if s[i].Low < s[i-1].Low {
			sell.Set(i, s[i].Low)
		}
		if s[i].High > s[i-1].High {
			buy.Set(i, s[i].High)
		}
	}
	return sell, buy
}
