package chart

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PatternScope/internal/model"
	"PatternScope/internal/pattern"
	"PatternScope/internal/terminal"
)

func analysis(symbol string, n int) *model.Analysis {
	s := terminal.GenerateRates(1.1, model.TimeframeM15, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), n)
	return &model.Analysis{
		RunID:       "run-" + symbol,
		Symbol:      symbol,
		Timeframe:   model.TimeframeM15,
		Source:      "mock",
		Series:      s,
		Annotations: pattern.LabelAll(s),
		CreatedAt:   time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, analysis("EURUSD", 200)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"echarts", "EURUSD M15", "Close", pattern.ColumnFVG, pattern.ColumnBuyLiquidity, "2024-05-01 12:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, &model.Analysis{Symbol: "EURUSD"}); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	if s.Get("EURUSD") != nil {
		t.Fatal("empty store should return nil")
	}
	s.Put(analysis("XAUUSD", 10))
	s.Put(analysis("EURUSD", 10))
	newer := analysis("EURUSD", 20)
	s.Put(newer)

	if got := s.Symbols(); len(got) != 2 || got[0] != "EURUSD" || got[1] != "XAUUSD" {
		t.Errorf("unexpected symbols %v", got)
	}
	if s.Get("EURUSD") != newer {
		t.Error("Put should replace the previous analysis")
	}
}

func TestHandler(t *testing.T) {
	store := NewStore()
	store.Put(analysis("EURUSD", 50))
	h := NewHandler(store)

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, `/chart?symbol=EURUSD`},
		{"/chart?symbol=EURUSD", http.StatusOK, "echarts"},
		{"/chart", http.StatusBadRequest, "symbol is required"},
		{"/chart?symbol=GBPUSD", http.StatusNotFound, "no analysis"},
		{"/favicon.ico", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.wantCode {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.wantCode, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tt.wantBody) {
			t.Errorf("%s: body missing %q", tt.path, tt.wantBody)
		}
	}
}
