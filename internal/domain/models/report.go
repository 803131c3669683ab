package models

import "time"

// Image modes for chart embedding.
const (
	ImageModeFile   = "file"
	ImageModeInline = "inline"
)

// ForwardSummaryRow is one (bucket, horizon) line of the precomputed summary.
type ForwardSummaryRow struct {
	Bucket     string
	Horizon    int
	WinRatePct float64
	MeanPct    float64
	Count      int
}

// ForwardSummary keeps the raw table for verbatim rendering plus typed rows
// when the columns are recognised.
type ForwardSummary struct {
	Header  []string
	Records [][]string
	Rows    []ForwardSummaryRow
}

// SummaryEntry is one key of the optional summary blob. Value is the
// verbatim JSON text for non-string values.
type SummaryEntry struct {
	Key   string
	Value string
}

// Chart is one rendered PNG.
type Chart struct {
	Name    string
	Title   string
	Caption string
	PNG     []byte
}

// AssetPath is the docs-relative path of a chart in file mode.
func (c Chart) AssetPath(assetsDir string) string {
	return assetsDir + "/" + c.Name + ".png"
}

// ReportInput is everything the publisher renders.
type ReportInput struct {
	Title          string
	AsOf           time.Time
	GeneratedAt    time.Time
	Summary        []SummaryEntry
	ForwardSummary *ForwardSummary // nil when the file is missing
	BucketStats    *BucketForwardTable
	Signal         *Signal
	Heatmap        *TrendHeatmap
	Charts         []Chart
	NotesMarkdown  string
	RepoURL        string
	RecentReports  []ReportIndexEntry
}

// Report is a rendered HTML document and the files it depends on.
type Report struct {
	AsOf   time.Time
	HTML   []byte
	Assets map[string][]byte // docs-relative path -> bytes, empty in inline mode
}

// ReportIndexEntry is one line of the rolling report index.
type ReportIndexEntry struct {
	File string `json:"file"`
	AsOf string `json:"asof"`
}
