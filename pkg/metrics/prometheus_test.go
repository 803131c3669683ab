package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()

	r.RecordRun("success", 1.2)
	r.RecordRun("success", 0.8)
	r.RecordRun("failed", 0.1)
	r.RecordError("load")
	r.RecordRows(247)
	r.RecordChart("fg_line")
	r.RecordChart("fg_line")
	r.RecordAsOf(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("load")))
	assert.Equal(t, 247.0, testutil.ToFloat64(r.rowsLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.chartsRendered.WithLabelValues("fg_line")))
	assert.Equal(t, float64(1717113600), testutil.ToFloat64(r.lastAsOf))
	assert.Positive(t, testutil.ToFloat64(r.lastSuccess))
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordError("x")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.errorsTotal.WithLabelValues("x")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RecordRows(10)

	path := filepath.Join(t.TempDir(), "fgreport.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "fgreport_rows_loaded 10")
}

func TestHandler(t *testing.T) {
	r := New()
	r.RecordChart("components")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `fgreport_charts_rendered_total{chart="components"} 1`)
}

func TestRecordRequest(t *testing.T) {
	r := New()
	r.RecordRequest("/api/reports", "GET", 200, 0.01)
	r.RecordRequest("/api/reports", "GET", 200, 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/reports", "GET", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.httpDuration))
}
