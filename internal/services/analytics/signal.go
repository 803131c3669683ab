package analytics

import (
	"math"

	"FGReport/internal/domain/models"
)

// LevelAction is the bucket rule: fear expands, greed reduces. Labels
// outside the five known buckets are neutral.
func LevelAction(bucket string) models.Action {
	switch bucket {
	case models.BucketExtremeFear, models.BucketFear:
		return models.ActionExpand
	case models.BucketGreed, models.BucketExtremeGreed:
		return models.ActionReduce
	default:
		return models.ActionNeutral
	}
}

// TrendAction is the momentum rule: both returns positive expands, both
// negative reduces, anything else (undefined, zero or mixed) is neutral.
func TrendAction(short, long float64) models.Action {
	if math.IsNaN(short) || math.IsNaN(long) {
		return models.ActionNeutral
	}
	switch {
	case short > 0 && long > 0:
		return models.ActionExpand
	case short < 0 && long < 0:
		return models.ActionReduce
	default:
		return models.ActionNeutral
	}
}

// DeriveSignal combines both rules into a verdict.
func DeriveSignal(in models.SignalInput) models.Signal {
	level := LevelAction(in.Bucket)
	trend := TrendAction(in.ShortReturn, in.LongReturn)
	total := level.Score() + trend.Score()

	verdict := models.VerdictNeutral
	switch {
	case total >= 1:
		verdict = models.VerdictBuyLeaning
	case total <= -1:
		verdict = models.VerdictDefensiveLeaning
	}

	return models.Signal{
		Input:       in,
		LevelAction: level,
		TrendAction: trend,
		Total:       total,
		Verdict:     verdict,
	}
}

// LatestSignalInput reads the signal inputs off the table's last row.
func LatestSignalInput(t *models.Table, shortWindow, longWindow int) (models.SignalInput, bool) {
	latest, ok := t.Latest()
	if !ok {
		return models.SignalInput{}, false
	}
	closes := t.Closes()
	last := len(closes) - 1
	return models.SignalInput{
		Score:       latest.Score,
		Bucket:      latest.Bucket,
		ShortReturn: TrailingReturnAt(closes, last, shortWindow),
		LongReturn:  TrailingReturnAt(closes, last, longWindow),
		ShortWindow: shortWindow,
		LongWindow:  longWindow,
	}, true
}
