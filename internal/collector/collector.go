package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"PatternScope/internal/model"
	"PatternScope/internal/pattern"
)

// Collector orchestrates candle fetching and pattern labeling.
type Collector struct {
	Fetcher   Fetcher
	Timeframe model.Timeframe
	Candles   int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, tf model.Timeframe, candles int) *Collector {
	return &Collector{Fetcher: fetcher, Timeframe: tf, Candles: candles}
}

// Collect fetches candles for symbol and labels every pattern column.
// A short series is not an error: its predicate columns are simply empty.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.Analysis, error) {
	raw, err := c.Fetcher.FetchCandles(ctx, symbol, c.Timeframe, c.Candles)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	series := Sanitize(symbol, raw)
	if len(series) < pattern.MinCandles {
		log.Printf("[WARN] %s: only %d candles, pattern columns will be empty", symbol, len(series))
	}

	return &model.Analysis{
		RunID:       uuid.NewString(),
		Symbol:      symbol,
		Timeframe:   c.Timeframe,
		Source:      c.Fetcher.Name(),
		Series:      series,
		Annotations: pattern.LabelAll(series),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Sanitize drops malformed candles and duplicate timestamps and returns the
// rest in chronological order. The input is not modified.
func Sanitize(symbol string, raw model.Series) model.Series {
	out := make(model.Series, 0, len(raw))
	for _, c := range raw {
		if err := c.Validate(); err != nil {
			log.Printf("[WARN] %s: dropping candle at %s: %v", symbol, c.Time.Format(time.RFC3339), err)
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for _, c := range out {
		if n := len(dedup); n > 0 && c.Time.Equal(dedup[n-1].Time) {
			continue
		}
		dedup = append(dedup, c)
	}
	return dedup
}
