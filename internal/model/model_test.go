package model

import (
	"math"
	"testing"
	"time"
)

func TestCandleValidate(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		c       Candle
		wantErr error
	}{
		{"ok", Candle{Time: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5}, nil},
		{"doji", Candle{Time: ts, Open: 1, High: 1, Low: 1, Close: 1}, nil},
		{"zero time", Candle{Open: 1, High: 2, Low: 0.5, Close: 1.5}, errZeroTime},
		{"nan", Candle{Time: ts, Open: math.NaN(), High: 2, Low: 0.5, Close: 1.5}, errNotFinite},
		{"inf", Candle{Time: ts, Open: 1, High: math.Inf(1), Low: 0.5, Close: 1.5}, errNotFinite},
		{"high below close", Candle{Time: ts, Open: 1, High: 1.2, Low: 0.5, Close: 1.5}, errHighBelow},
		{"high below low", Candle{Time: ts, Open: 1, High: 0.4, Low: 0.5, Close: 0.45}, errHighBelow},
		{"low above open", Candle{Time: ts, Open: 1, High: 2, Low: 1.1, Close: 1.5}, errLowAbove},
	}
	for _, tt := range tests {
		if err := tt.c.Validate(); err != tt.wantErr {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestTimeframe(t *testing.T) {
	if !TimeframeM15.Valid() || TimeframeM15.Duration() != 15*time.Minute {
		t.Error("M15 should be valid with a 15 minute duration")
	}
	if Timeframe("M7").Valid() || Timeframe("m15").Valid() {
		t.Error("unknown or lowercase timeframes should be invalid")
	}
	if Timeframe("X").Duration() != 0 {
		t.Error("unknown timeframe should have zero duration")
	}
}

func TestColumn(t *testing.T) {
	c := NewColumn("fvg", 5)
	c.Set(1, 1.5)
	c.Set(3, 2.5)
	c.Set(-1, 9)
	c.Set(5, 9)

	if c.Len() != 5 || c.Count() != 2 || c.Empty() {
		t.Fatalf("unexpected column len=%d count=%d", c.Len(), c.Count())
	}
	if v, ok := c.At(3); !ok || v != 2.5 {
		t.Errorf("At(3) = %v, %v", v, ok)
	}
	if _, ok := c.At(2); ok {
		t.Error("slot 2 should be empty")
	}
	if _, ok := c.At(7); ok {
		t.Error("out of range slot should be empty")
	}
	if idx := c.Indices(); len(idx) != 2 || idx[0] != 1 || idx[1] != 3 {
		t.Errorf("unexpected indices %v", idx)
	}
	if !NewColumn("x", -3).Empty() {
		t.Error("negative length column should be empty")
	}
}

func TestAnalysisHitsAt(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	a := &Analysis{Series: Series{{Time: ts}, {Time: ts.Add(time.Minute)}}}
	fvg := NewColumn("fvg", 2)
	fvg.Set(1, 1.1)
	ob := NewColumn("order_block", 2)
	ob.Set(1, 1.2)
	a.Annotations = Annotations{fvg, NewColumn("ifvg", 2), ob}

	hits := a.HitsAt(1)
	if len(hits) != 2 || hits[0].Column != "fvg" || hits[1].Value != 1.2 || !hits[1].Time.Equal(ts.Add(time.Minute)) {
		t.Errorf("unexpected hits %+v", hits)
	}
	if a.HitsAt(0) != nil || a.HitsAt(-1) != nil || a.HitsAt(2) != nil {
		t.Error("expected no hits outside marked slots")
	}
	if names := a.Annotations.Names(); len(names) != 3 || names[2] != "order_block" {
		t.Errorf("unexpected names %v", names)
	}
	if _, ok := a.Annotations.Get("breaker_block"); ok {
		t.Error("unexpected column")
	}
}

func TestOrderType(t *testing.T) {
	for typ := OrderTypeBuy; typ <= OrderTypeSellStopLimit; typ++ {
		parsed, err := ParseOrderType(typ.String())
		if err != nil || parsed != typ {
			t.Errorf("ParseOrderType(%q) = %v, %v", typ.String(), parsed, err)
		}
	}
	if _, err := ParseOrderType(" BUY_LIMIT "); err != nil {
		t.Errorf("parse should ignore case and spaces: %v", err)
	}
	if _, err := ParseOrderType("close"); err == nil {
		t.Error("expected error for unknown type")
	}
	if OrderTypeBuy.Pending() || OrderTypeSell.Pending() || !OrderTypeBuyLimit.Pending() || !OrderTypeSellStopLimit.Pending() {
		t.Error("unexpected Pending classification")
	}
	if TradeActionDeal != 1 || TradeActionPending != 5 || RetcodeDone != 10009 {
		t.Error("terminal constants changed")
	}
}
