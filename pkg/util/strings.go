package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

var undefinedTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"none": {},
	"na":   {},
	"n/a":  {},
	"-":    {},
}

// thousandsGrouped matches numbers whose commas are thousands separators.
var thousandsGrouped = regexp.MustCompile(`^[+-]?[1-9][0-9]{0,2}(,[0-9]{3})+(\.[0-9]+)?$`)

// ParseFloat reads a numeric CSV cell holding a plain number or fraction.
// Commas are accepted only as thousands grouping ("1,234.5"); a decimal
// comma ("0,031") and a percent sign are rejected rather than rescaled.
// Undefined markers and unparsable text return NaN, false.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if _, ok := undefinedTokens[strings.ToLower(s)]; ok {
		return math.NaN(), false
	}
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return math.NaN(), false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	return parseFinite(s)
}

// ParsePercent reads a cell already expressed in percent, as in the
// forward summary table. A trailing "%" and thousands commas are dropped;
// the value is not rescaled.
func ParsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if _, ok := undefinedTokens[strings.ToLower(s)]; ok {
		return math.NaN(), false
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	return parseFinite(strings.ReplaceAll(s, ",", ""))
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// IsBlank reports whether a cell holds no value.
func IsBlank(s string) bool {
	_, ok := undefinedTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
