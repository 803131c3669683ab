package models

// TrendBin classifies a short trailing return.
type TrendBin string

const (
	TrendStrongDown TrendBin = "strong-down"
	TrendDown       TrendBin = "down"
	TrendFlat       TrendBin = "flat"
	TrendUp         TrendBin = "up"
	TrendStrongUp   TrendBin = "strong-up"
	TrendNA         TrendBin = "n/a"
)

// TrendOrder is the column order of trend-indexed matrices.
var TrendOrder = []TrendBin{TrendStrongDown, TrendDown, TrendFlat, TrendUp, TrendStrongUp}

// TrendBands holds the four band edges, strictly increasing.
// Downside edges are inclusive from above (r <= edge); upside edges are
// inclusive from below (r >= edge).
type TrendBands struct {
	StrongDown float64
	Down       float64
	Up         float64
	StrongUp   float64
}

// DefaultTrendBands are the production band edges.
var DefaultTrendBands = TrendBands{StrongDown: -0.05, Down: -0.02, Up: 0.02, StrongUp: 0.05}
