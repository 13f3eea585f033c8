package model

import "time"

// Column is an annotation aligned to a Series. Slot i holds a value only where
// the predicate behind the column held at candle i; an empty slot means false.
type Column struct {
	Name    string
	values  []float64
	present []bool
}

// NewColumn returns an empty column with n slots.
func NewColumn(name string, n int) Column {
	if n < 0 {
		n = 0
	}
	return Column{
		Name:    name,
		values:  make([]float64, n),
		present: make([]bool, n),
	}
}

// Set marks slot i with v. Out-of-range indices are ignored.
func (c *Column) Set(i int, v float64) {
	if i < 0 || i >= len(c.values) {
		return
	}
	c.values[i] = v
	c.present[i] = true
}

// At returns the value at slot i and whether it is present.
func (c Column) At(i int) (float64, bool) {
	if i < 0 || i >= len(c.values) || !c.present[i] {
		return 0, false
	}
	return c.values[i], true
}

// Len returns the number of slots, which equals the length of the labeled series.
func (c Column) Len() int { return len(c.values) }

// Indices returns the marked slots in ascending order.
func (c Column) Indices() []int {
	var idx []int
	for i, ok := range c.present {
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// Count returns the number of marked slots.
func (c Column) Count() int {
	n := 0
	for _, ok := range c.present {
		if ok {
			n++
		}
	}
	return n
}

// Empty reports whether no slot is marked.
func (c Column) Empty() bool { return c.Count() == 0 }

// Annotations is an ordered set of columns over the same series.
type Annotations []Column

// Get returns the column with the given name.
func (a Annotations) Get(name string) (Column, bool) {
	for _, c := range a {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in order.
func (a Annotations) Names() []string {
	names := make([]string, len(a))
	for i, c := range a {
		names[i] = c.Name
	}
	return names
}

// Analysis is the output of one labeling run over one symbol.
type Analysis struct {
	RunID       string
	Symbol      string
	Timeframe   Timeframe
	Source      string
	Series      Series
	Annotations Annotations
	CreatedAt   time.Time
}

// Hit is a single marked slot.
type Hit struct {
	Column string
	Index  int
	Time   time.Time
	Value  float64
}

// HitsAt returns every column marked at index i.
func (a *Analysis) HitsAt(i int) []Hit {
	var hits []Hit
	if i < 0 || i >= len(a.Series) {
		return nil
	}
	for _, c := range a.Annotations {
		if v, ok := c.At(i); ok {
			hits = append(hits, Hit{Column: c.Name, Index: i, Time: a.Series[i].Time, Value: v})
		}
	}
	return hits
}
