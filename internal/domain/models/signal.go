package models

// Action is the recommendation of one rule.
type Action string

const (
	ActionExpand  Action = "expand"
	ActionNeutral Action = "neutral"
	ActionReduce  Action = "reduce"
)

// Score maps an action to +1, 0 or -1.
func (a Action) Score() int {
	switch a {
	case ActionExpand:
		return 1
	case ActionReduce:
		return -1
	default:
		return 0
	}
}

// Verdict is the combined recommendation.
type Verdict string

const (
	VerdictBuyLeaning       Verdict = "buy-leaning"
	VerdictNeutral          Verdict = "neutral"
	VerdictDefensiveLeaning Verdict = "defensive-leaning"
)

// SignalInput carries the latest row's level and short-term trend.
// Returns are NaN when undefined.
type SignalInput struct {
	Score       float64
	Bucket      string
	ShortReturn float64
	LongReturn  float64
	ShortWindow int
	LongWindow  int
}

// Signal is the derived strategy recommendation.
type Signal struct {
	Input       SignalInput
	LevelAction Action
	TrendAction Action
	Total       int
	Verdict     Verdict
}
