package collector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"PatternScope/internal/model"
	"PatternScope/internal/pattern"
	"PatternScope/internal/terminal"
)

var base = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func candleAt(minute int, o, h, l, c float64) model.Candle {
	return model.Candle{Time: base.Add(time.Duration(minute) * time.Minute), Open: o, High: h, Low: l, Close: c}
}

func TestSanitize_DropsMalformedAndDuplicates(t *testing.T) {
	raw := model.Series{
		candleAt(30, 1.2, 1.3, 1.1, 1.25),
		candleAt(0, 1.0, 1.1, 0.9, 1.05),
		candleAt(15, 1.05, 1.0, 1.1, 1.1), // high below low
		candleAt(15, 1.05, 1.2, 1.0, 1.15),
		candleAt(15, 1.05, 1.2, 1.0, 1.16),      // duplicate timestamp
		candleAt(45, math.NaN(), 1.3, 1.1, 1.2), // NaN open
		{Open: 1, High: 1, Low: 1, Close: 1},    // no timestamp
	}
	got := Sanitize("EURUSD", raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(got))
	}
	for i, want := range []int{0, 15, 30} {
		if !got[i].Time.Equal(base.Add(time.Duration(want) * time.Minute)) {
			t.Errorf("candle %d: unexpected time %v", i, got[i].Time)
		}
	}
	if got[1].Close != 1.15 {
		t.Errorf("expected first of duplicate timestamps to win, got close %.2f", got[1].Close)
	}
	if !raw[0].Time.Equal(base.Add(30 * time.Minute)) {
		t.Error("input series was reordered")
	}
}

func TestCollect_LabelsSeries(t *testing.T) {
	series := terminal.GenerateRates(1.1, model.TimeframeM15, base, 60)
	col := NewCollector(&MockFetcher{Data: map[string]model.Series{"EURUSD": series}}, model.TimeframeM15, 40)

	a, err := col.Collect(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if a.RunID == "" || a.Source != "mock" || a.Symbol != "EURUSD" {
		t.Errorf("unexpected analysis header %+v", a)
	}
	if len(a.Series) != 40 {
		t.Fatalf("expected 40 candles, got %d", len(a.Series))
	}
	if len(a.Annotations) != 6 {
		t.Fatalf("expected 6 columns, got %d", len(a.Annotations))
	}
	for _, c := range a.Annotations {
		if c.Len() != len(a.Series) {
			t.Errorf("%s: %d slots for %d candles", c.Name, c.Len(), len(a.Series))
		}
	}
	fvg, _ := a.Annotations.Get(pattern.ColumnFVG)
	if fvg.Empty() {
		t.Error("expected generated series to contain fair-value gaps")
	}
}

func TestCollect_ShortSeriesIsNotAnError(t *testing.T) {
	series := terminal.GenerateRates(1.1, model.TimeframeM15, base, 3)
	col := NewCollector(&MockFetcher{Data: map[string]model.Series{"EURUSD": series}}, model.TimeframeM15, 500)
	a, err := col.Collect(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	for _, c := range a.Annotations[:len(pattern.Definitions)] {
		if !c.Empty() {
			t.Errorf("%s should be empty for a 3-candle series", c.Name)
		}
	}
}

func TestCollect_FetchError(t *testing.T) {
	boom := errors.New("boom")
	col := NewCollector(&MockFetcher{Err: boom}, model.TimeframeM15, 10)
	if _, err := col.Collect(context.Background(), "EURUSD"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

func TestTerminalFetcher(t *testing.T) {
	ctx := context.Background()
	sess := &terminal.MockSession{Rates: map[string]model.Series{
		"EURUSD": terminal.GenerateRates(1.1, model.TimeframeH1, base, 30),
	}}
	f := NewTerminalFetcher(sess)
	if _, err := f.FetchCandles(ctx, "EURUSD", model.TimeframeH1, 10); !errors.Is(err, terminal.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if err := sess.Login(ctx, terminal.Credentials{Account: 1}); err != nil {
		t.Fatal(err)
	}
	got, err := f.FetchCandles(ctx, "EURUSD", model.TimeframeH1, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("expected 10 candles, got %d", len(got))
	}
}

func TestResample(t *testing.T) {
	hourly := model.Series{
		{Time: base, Open: 1, High: 2, Low: 0.5, Close: 1.5, TickVolume: 1},
		{Time: base.Add(1 * time.Hour), Open: 1.5, High: 3, Low: 1, Close: 2, TickVolume: 1},
		{Time: base.Add(3 * time.Hour), Open: 2, High: 2.5, Low: 0.2, Close: 0.4, TickVolume: 1},
		{Time: base.Add(4 * time.Hour), Open: 0.4, High: 0.9, Low: 0.3, Close: 0.8, TickVolume: 1},
	}
	got := Resample(hourly, 4*time.Hour)
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	first := got[0]
	if first.Open != 1 || first.High != 3 || first.Low != 0.2 || first.Close != 0.4 || first.TickVolume != 3 {
		t.Errorf("unexpected first bar %+v", first)
	}
	if !got[1].Time.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("unexpected second bar time %v", got[1].Time)
	}
}
