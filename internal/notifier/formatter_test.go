package notifier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"PatternScope/internal/model"
	"PatternScope/internal/pattern"
	"PatternScope/internal/trader"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func series(bars ...[4]float64) model.Series {
	s := make(model.Series, len(bars))
	for i, b := range bars {
		s[i] = model.Candle{Time: t0.Add(time.Duration(i) * 15 * time.Minute), Open: b[0], High: b[1], Low: b[2], Close: b[3]}
	}
	return s
}

func analysisOf(s model.Series) *model.Analysis {
	return &model.Analysis{
		RunID:       "r1",
		Symbol:      "EURUSD",
		Timeframe:   model.TimeframeM15,
		Source:      "mock",
		Series:      s,
		Annotations: pattern.LabelAll(s),
		CreatedAt:   t0.Add(time.Hour),
	}
}

func TestFormatSignal(t *testing.T) {
	// bar 2 is bearish and bar 3 bullish: order block on the latest evaluable bar.
	a := analysisOf(series(
		[4]float64{10, 11, 9, 10.5},
		[4]float64{10.5, 11, 10, 10.8},
		[4]float64{10.8, 11, 10.1, 10.2},
		[4]float64{10.2, 10.9, 10.1, 10.7},
	))
	msg := FormatSignal(a)
	if !strings.Contains(msg, "EURUSD M15") || !strings.Contains(msg, "Order block @ 10.2") {
		t.Errorf("unexpected signal message:\n%s", msg)
	}
	if !strings.Contains(msg, "2024-03-04 09:30") {
		t.Errorf("signal should carry the bar time:\n%s", msg)
	}
}

func TestFormatSignal_NothingOnLatestBar(t *testing.T) {
	a := analysisOf(series(
		[4]float64{10, 11, 9, 10.5},
		[4]float64{10.5, 11, 10, 10.8},
		[4]float64{10.8, 11, 10, 10.9},
		[4]float64{10.9, 11, 10, 11},
	))
	if msg := FormatSignal(a); msg != "" {
		t.Errorf("expected no signal, got:\n%s", msg)
	}
	if msg := FormatSignal(analysisOf(series([4]float64{1, 2, 0.5, 1.5}))); msg != "" {
		t.Errorf("short series should not signal, got %q", msg)
	}
}

func TestFormatSummary(t *testing.T) {
	a := analysisOf(series(
		[4]float64{10, 11, 9, 10.5},
		[4]float64{10.5, 12, 10, 11.5},
		[4]float64{11.5, 13, 11.2, 12.8},
		[4]float64{12.8, 14, 12.5, 13.5},
	))
	msg := FormatSummary(a)
	for _, want := range []string{"4 bars from mock", "Buy-side liquidity: 3", "Fair value gap: 0", "close 13.5"} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatOrder(t *testing.T) {
	tests := []struct {
		name string
		res  *model.OrderResult
		err  error
		want string
	}{
		{"filled", &model.OrderResult{Retcode: model.RetcodeDone, Price: 1.0852, Order: 1001}, nil, "filled at 1.0852, ticket 1001"},
		{"rejected", &model.OrderResult{Retcode: 10019}, &trader.RejectError{Retcode: 10019, Comment: "No money"}, "rejected: retcode 10019 (No money)"},
		{"failed", nil, errors.New("symbol <XX> missing"), "failed: symbol &lt;XX&gt; missing"},
	}
	for _, tt := range tests {
		got := FormatOrder("EURUSD", model.OrderTypeBuy, 0.1, tt.res, tt.err)
		if !strings.Contains(got, tt.want) || !strings.Contains(got, "BUY EURUSD 0.1 lots") {
			t.Errorf("%s: unexpected message %q", tt.name, got)
		}
	}
}

func TestFormatHelp(t *testing.T) {
	if strings.Contains(FormatHelp(false), "/buy") {
		t.Error("help should hide trading commands when trading is disabled")
	}
	if !strings.Contains(FormatHelp(true), "/sell SYMBOL LOTS") {
		t.Error("help should list trading commands when trading is enabled")
	}
}
