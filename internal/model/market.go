package model

import (
	"errors"
	"math"
	"time"
)

// Timeframe is a terminal chart period such as "M15" or "H1".
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"
	TimeframeD1  Timeframe = "D1"
	TimeframeW1  Timeframe = "W1"
	TimeframeMN1 Timeframe = "MN1"
)

// timeframeDurations lists the supported timeframes. Monthly bars are approximated as 30 days.
var timeframeDurations = map[Timeframe]time.Duration{
	TimeframeM1:  time.Minute,
	TimeframeM5:  5 * time.Minute,
	TimeframeM15: 15 * time.Minute,
	TimeframeM30: 30 * time.Minute,
	TimeframeH1:  time.Hour,
	TimeframeH4:  4 * time.Hour,
	TimeframeD1:  24 * time.Hour,
	TimeframeW1:  7 * 24 * time.Hour,
	TimeframeMN1: 30 * 24 * time.Hour,
}

// Valid reports whether tf is a supported timeframe.
func (tf Timeframe) Valid() bool {
	_, ok := timeframeDurations[tf]
	return ok
}

// Duration returns the bar length of tf, or 0 for an unknown timeframe.
func (tf Timeframe) Duration() time.Duration {
	return timeframeDurations[tf]
}

// Candle represents a single OHLC bar.
type Candle struct {
	Time       time.Time `json:"time"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	TickVolume float64   `json:"tick_volume"`
	Spread     int       `json:"spread"`
}

var (
	errZeroTime  = errors.New("candle has no timestamp")
	errNotFinite = errors.New("candle has a non-finite price")
	errHighBelow = errors.New("candle high is below open, close or low")
	errLowAbove  = errors.New("candle low is above open or close")
)

// Validate rejects candles that cannot be labeled.
func (c Candle) Validate() error {
	if c.Time.IsZero() {
		return errZeroTime
	}
	for _, p := range []float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return errNotFinite
		}
	}
	if c.High < c.Low || c.High < c.Open || c.High < c.Close {
		return errHighBelow
	}
	if c.Low > c.Open || c.Low > c.Close {
		return errLowAbove
	}
	return nil
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Series is a chronologically ordered run of candles.
type Series []Candle

// Tick is the latest quote for a symbol.
type Tick struct {
	Time time.Time `json:"time"`
	Bid  float64   `json:"bid"`
	Ask  float64   `json:"ask"`
	Last float64   `json:"last"`
}
