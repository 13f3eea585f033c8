package collector

import (
	"context"
	"fmt"

	"PatternScope/internal/model"
	"PatternScope/internal/terminal"
)

// TerminalFetcher implements Fetcher on top of a logged-in terminal session.
type TerminalFetcher struct {
	Session terminal.Session
}

// NewTerminalFetcher creates a fetcher. The caller owns the session lifecycle.
func NewTerminalFetcher(sess terminal.Session) *TerminalFetcher {
	return &TerminalFetcher{Session: sess}
}

func (f *TerminalFetcher) Name() string { return "terminal" }

func (f *TerminalFetcher) FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, count int) (model.Series, error) {
	series, err := f.Session.CopyRatesFromPos(ctx, symbol, tf, 0, count)
	if err != nil {
		if last := f.Session.LastError(); last != nil {
			return nil, fmt.Errorf("fetch candles: %w (terminal: %v)", err, last)
		}
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	return series, nil
}
