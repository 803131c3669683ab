package models

import (
	"math"
	"time"
)

// Sentiment buckets in their fixed display order.
const (
	BucketExtremeFear  = "Extreme Fear"
	BucketFear         = "Fear"
	BucketNeutral      = "Neutral"
	BucketGreed        = "Greed"
	BucketExtremeGreed = "Extreme Greed"
)

// DefaultBucketOrder is the row order of every bucket-indexed matrix.
var DefaultBucketOrder = []string{
	BucketExtremeFear,
	BucketFear,
	BucketNeutral,
	BucketGreed,
	BucketExtremeGreed,
}

// Observation is one trading day of the sentiment table.
type Observation struct {
	Date       time.Time
	Score      float64
	Bucket     string
	Close      float64 // NaN when the table has no close or the cell is blank
	Components map[string]float64
	Forward    map[int]float64 // keyed by horizon in trading days
}

// ForwardReturn returns the realized return h days ahead, if known.
func (o Observation) ForwardReturn(h int) (float64, bool) {
	v, ok := o.Forward[h]
	if !ok || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// Component returns a component score, if present for this row.
func (o Observation) Component(name string) (float64, bool) {
	v, ok := o.Components[name]
	if !ok || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// Schema records which source columns were resolved for a table.
type Schema struct {
	DateColumn     string
	ScoreColumn    string
	BucketColumn   string
	CloseColumn    string         // empty when absent
	ForwardColumns map[int]string // horizon -> column, only resolved horizons
	Components     []string       // present components in configured order
}

func (s Schema) HasBucket() bool { return s.BucketColumn != "" }
func (s Schema) HasClose() bool  { return s.CloseColumn != "" }

// HasForward reports whether horizon h was resolved.
func (s Schema) HasForward(h int) bool {
	_, ok := s.ForwardColumns[h]
	return ok
}

// Table is the typed, date-ascending observation series.
type Table struct {
	Observations []Observation
	Schema       Schema
}

func (t *Table) Len() int { return len(t.Observations) }

// Latest returns the most recent observation.
func (t *Table) Latest() (Observation, bool) {
	if len(t.Observations) == 0 {
		return Observation{}, false
	}
	return t.Observations[len(t.Observations)-1], true
}

// AsOf is the date of the most recent row.
func (t *Table) AsOf() time.Time {
	o, _ := t.Latest()
	return o.Date
}

// Closes returns the close series aligned with Observations.
func (t *Table) Closes() []float64 {
	out := make([]float64, len(t.Observations))
	for i, o := range t.Observations {
		out[i] = o.Close
	}
	return out
}

// Tail returns the last n observations (all of them when n exceeds Len).
func (t *Table) Tail(n int) []Observation {
	if n <= 0 || n >= len(t.Observations) {
		return t.Observations
	}
	return t.Observations[len(t.Observations)-n:]
}
