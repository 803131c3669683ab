package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/repository"
	"FGReport/pkg/util"
)

// Candidates lists, per field, the column names accepted in priority order.
type Candidates struct {
	Date             []string
	Score            []string
	Bucket           []string
	Close            []string
	ForwardTemplates []string // "{n}" is replaced by the horizon
	Horizons         []int
	Components       []string
}

// Resolver turns a raw delimited table into a typed models.Table.
type Resolver struct {
	c Candidates
}

func NewResolver(c Candidates) *Resolver {
	return &Resolver{c: c}
}

// Resolve picks, for every field, the first candidate column that exists and
// holds at least one value. Date, score and bucket are required; close,
// forward returns and components are optional. Rows are returned sorted by
// date with the last occurrence of a duplicated date kept.
func (r *Resolver) Resolve(header []string, records [][]string) (*models.Table, error) {
	cols := indexHeader(header)
	pick := func(candidates []string) (string, int) {
		for _, name := range candidates {
			idx, ok := cols[name]
			if ok && hasValue(records, idx) {
				return name, idx
			}
		}
		return "", -1
	}

	var s models.Schema
	dateName, dateIdx := pick(r.c.Date)
	if dateIdx < 0 {
		return nil, missing("date", r.c.Date, header)
	}
	scoreName, scoreIdx := pick(r.c.Score)
	if scoreIdx < 0 {
		return nil, missing("score", r.c.Score, header)
	}
	bucketName, bucketIdx := pick(r.c.Bucket)
	if bucketIdx < 0 {
		return nil, missing("bucket", r.c.Bucket, header)
	}
	closeName, closeIdx := pick(r.c.Close)

	s.DateColumn, s.ScoreColumn, s.BucketColumn, s.CloseColumn = dateName, scoreName, bucketName, closeName

	forwardIdx := map[int]int{}
	s.ForwardColumns = map[int]string{}
	for _, h := range r.c.Horizons {
		names := make([]string, len(r.c.ForwardTemplates))
		for i, tpl := range r.c.ForwardTemplates {
			names[i] = strings.ReplaceAll(tpl, "{n}", strconv.Itoa(h))
		}
		if name, idx := pick(names); idx >= 0 {
			s.ForwardColumns[h] = name
			forwardIdx[h] = idx
		}
	}

	componentIdx := map[string]int{}
	for _, c := range r.c.Components {
		if _, idx := pick([]string{c}); idx >= 0 {
			s.Components = append(s.Components, c)
			componentIdx[c] = idx
		}
	}

	byDate := map[int64]int{}
	var obs []models.Observation
	for n, rec := range records {
		raw := cell(rec, dateIdx)
		if util.IsBlank(raw) {
			continue
		}
		date, ok := util.ParseDate(raw)
		if !ok {
			// header is line 1
			return nil, fmt.Errorf("row %d: invalid date %q in column %s", n+2, raw, dateName)
		}

		o := models.Observation{
			Date:       date,
			Bucket:     strings.TrimSpace(cell(rec, bucketIdx)),
			Components: make(map[string]float64, len(componentIdx)),
			Forward:    make(map[int]float64, len(forwardIdx)),
		}
		o.Score, _ = util.ParseFloat(cell(rec, scoreIdx))
		o.Close, _ = util.ParseFloat(cell(rec, closeIdx))
		for h, idx := range forwardIdx {
			if v, ok := util.ParseFloat(cell(rec, idx)); ok {
				o.Forward[h] = v
			}
		}
		for name, idx := range componentIdx {
			if v, ok := util.ParseFloat(cell(rec, idx)); ok {
				o.Components[name] = v
			}
		}

		key := date.Unix()
		if i, dup := byDate[key]; dup {
			obs[i] = o
			continue
		}
		byDate[key] = len(obs)
		obs = append(obs, o)
	}

	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return &models.Table{Observations: obs, Schema: s}, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func hasValue(records [][]string, idx int) bool {
	for _, rec := range records {
		if !util.IsBlank(cell(rec, idx)) {
			return true
		}
	}
	return false
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

func missing(field string, candidates, header []string) error {
	shown := header
	if len(shown) > 30 {
		shown = shown[:30]
	}
	return fmt.Errorf("%w: %s (tried %s; columns=%v)", repository.ErrColumnMissing, field, strings.Join(candidates, ", "), shown)
}
