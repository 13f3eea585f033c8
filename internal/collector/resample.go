package collector

import (
	"time"

	"PatternScope/internal/model"
)

// Resample merges chronological bars into buckets of width d aligned to the
// Unix epoch. Each bucket opens at its first bar and closes at its last.
func Resample(bars model.Series, d time.Duration) model.Series {
	if len(bars) == 0 || d <= 0 {
		return nil
	}
	var out model.Series
	var cur model.Candle
	var curKey time.Time
	started := false

	for _, b := range bars {
		key := b.Time.Truncate(d)
		if !started || !key.Equal(curKey) {
			if started {
				out = append(out, cur)
			}
			cur = b
			cur.Time = key
			curKey = key
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.TickVolume += b.TickVolume
	}
	if started {
		out = append(out, cur)
	}
	return out
}
