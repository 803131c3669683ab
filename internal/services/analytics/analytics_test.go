package analytics

import (
	"math"
	"time"

	"FGReport/internal/domain/models"
)

var nan = math.NaN()

type row struct {
	bucket string
	close  float64
	fwd20  float64
}

// buildTable makes a daily table with bucket, close and 20d forward columns.
func buildTable(rows []row) *models.Table {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t := &models.Table{
		Schema: models.Schema{
			DateColumn:     "date",
			ScoreColumn:    "fear_greed",
			BucketColumn:   "fg_bucket",
			CloseColumn:    "close",
			ForwardColumns: map[int]string{20: "fwd_ret_20d"},
		},
	}
	for i, r := range rows {
		o := models.Observation{
			Date:    start.AddDate(0, 0, i),
			Score:   50,
			Bucket:  r.bucket,
			Close:   r.close,
			Forward: map[int]float64{},
		}
		if !math.IsNaN(r.fwd20) {
			o.Forward[20] = r.fwd20
		}
		t.Observations = append(t.Observations, o)
	}
	return t
}
