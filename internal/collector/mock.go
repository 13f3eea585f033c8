package collector

import (
	"context"
	"time"

	"PatternScope/internal/model"
	"PatternScope/internal/terminal"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Data  map[string]model.Series
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, symbol string, tf model.Timeframe, count int) (model.Series, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if s, ok := m.Data[symbol]; ok {
		if len(s) > count {
			s = s[len(s)-count:]
		}
		return append(model.Series(nil), s...), nil
	}
	price := m.Price
	if price == 0 {
		price = 1.1
	}
	return terminal.GenerateRates(price, tf, time.Now().UTC().Truncate(tf.Duration()), count), nil
}
