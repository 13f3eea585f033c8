// Package chart draws labelled candle series with go-echarts.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"PatternScope/internal/model"
	"PatternScope/internal/pattern"
)

const (
	width  = "1600px"
	height = "800px"
	// visibleBars is how many of the latest bars the zoom window shows initially.
	visibleBars = 120
)

type marker struct {
	symbol  string
	color   string
	flipped bool
}

var markers = map[string]marker{
	pattern.ColumnFVG:           {"circle", "#FF0000", false},
	pattern.ColumnIFVG:          {"circle", "#0000FF", false},
	pattern.ColumnOrderBlock:    {"triangle", "#008000", false},
	pattern.ColumnBreakerBlock:  {"triangle", "#FFA500", true},
	pattern.ColumnSellLiquidity: {"diamond", "#800080", false},
	pattern.ColumnBuyLiquidity:  {"diamond", "#FFC0CB", false},
}

func markerFor(name string) marker {
	if m, ok := markers[name]; ok {
		return m
	}
	return marker{"pin", "#888888", false}
}

// Render writes an HTML page with the candle series, the close price line and
// one scatter overlay per annotation column.
func Render(w io.Writer, a *model.Analysis) error {
	if len(a.Series) == 0 {
		return fmt.Errorf("render %s: empty series", a.Symbol)
	}

	x := make([]string, len(a.Series))
	klineY := make([]opts.KlineData, len(a.Series))
	closeY := make([]opts.LineData, len(a.Series))
	for i, c := range a.Series {
		x[i] = c.Time.UTC().Format("2006-01-02 15:04")
		klineY[i] = opts.KlineData{Value: []float64{c.Open, c.Close, c.Low, c.High}}
		closeY[i] = opts.LineData{Value: c.Close, SymbolSize: 0}
	}

	start := float32(0)
	if n := len(a.Series); n > visibleBars {
		start = 100 - float32(visibleBars)/float32(n)*100
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s %s", a.Symbol, a.Timeframe),
			Width:     width,
			Height:    height,
			Theme:     types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s", a.Symbol, a.Timeframe),
			Subtitle: fmt.Sprintf("%d bars from %s, run %s", len(a.Series), a.Source, a.RunID),
		}),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "bottom"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: true}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Start:      start,
			End:        100,
			Throttle:   16.666,
			XAxisIndex: []int{0},
			Type:       "inside",
		}),
	)
	kline.SetXAxis(x).
		AddSeries("Price", klineY).
		SetSeriesOptions(
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color:        "#26A69A",
				Color0:       "#EF5350",
				BorderColor:  "#26A69A",
				BorderColor0: "#EF5350",
			}),
		)

	line := charts.NewLine()
	line.SetXAxis(x).
		AddSeries("Close", closeY).
		SetSeriesOptions(
			charts.WithLineStyleOpts(opts.LineStyle{Color: "#555555", Width: 1}),
		)
	kline.Overlap(line)

	for _, col := range a.Annotations {
		kline.Overlap(scatterFor(x, col))
	}

	return kline.Render(w)
}

func scatterFor(x []string, col model.Column) *charts.Scatter {
	m := markerFor(col.Name)
	data := make([]opts.ScatterData, len(x))
	for i := range x {
		v, ok := col.At(i)
		if !ok {
			data[i] = opts.ScatterData{SymbolSize: 0}
			continue
		}
		data[i] = opts.ScatterData{
			Value:      v,
			Symbol:     m.symbol,
			SymbolSize: 10,
			Name:       col.Name,
		}
		if m.flipped {
			data[i].SymbolRotate = 180
		}
	}

	scatter := charts.NewScatter()
	scatter.SetXAxis(x).
		AddSeries(col.Name, data).
		SetSeriesOptions(
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color:       m.color,
				BorderColor: m.color,
			}),
		)
	return scatter
}
