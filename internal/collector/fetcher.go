package collector

import (
	"context"

	"PatternScope/internal/model"
)

// Fetcher defines the interface for fetching historical candles.
type Fetcher interface {
	// FetchCandles returns up to count of the most recent bars, oldest first.
	FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, count int) (model.Series, error)
	Name() string
}
