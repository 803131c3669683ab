package analytics

import (
	"math"

	"FGReport/internal/domain/models"
)

// ClassifyTrend bins a trailing return. The band edges are asymmetric on
// purpose: downside edges include the edge value (r <= edge) while upside
// edges start at the edge value (r >= edge). NaN maps to TrendNA.
func ClassifyTrend(r float64, b models.TrendBands) models.TrendBin {
	switch {
	case math.IsNaN(r):
		return models.TrendNA
	case r <= b.StrongDown:
		return models.TrendStrongDown
	case r <= b.Down:
		return models.TrendDown
	case r < b.Up:
		return models.TrendFlat
	case r < b.StrongUp:
		return models.TrendUp
	default:
		return models.TrendStrongUp
	}
}
