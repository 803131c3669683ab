package util

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-05-31", "2024/05/31", "20240531", "2024-05-31T15:30:00+09:00", "2024-05-31 15:30:00", " 2024.05.31 "} {
		got, ok := ParseDate(s)
		assert.True(t, ok, s)
		assert.True(t, want.Equal(got), "%s parsed as %v", s, got)
	}

	_, ok := ParseDate("yesterday")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-01-02", FormatDate(time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC)))
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42.5", 42.5, true},
		{" -0.031 ", -0.031, true},
		{"1,234.5", 1234.5, true},
		{"12,345,678", 12345678, true},
		{"3.1%", 0, false},
		{"0,031", 0, false},
		{"1,23.4", 0, false},
		{"", 0, false},
		{"nan", 0, false},
		{"NaN", 0, false},
		{"null", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFloat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-12, tt.in)
		} else {
			assert.True(t, math.IsNaN(got), tt.in)
		}
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"61.2%", 61.2, true},
		{"61.2 %", 61.2, true},
		{"-1.5", -1.5, true},
		{"1,234.5%", 1234.5, true},
		{"n/a", 0, false},
		{"%", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePercent(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-12, tt.in)
		} else {
			assert.True(t, math.IsNaN(got), tt.in)
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("7", 3))
	assert.Equal(t, 3, ParseIntDefault("", 3))
	assert.Equal(t, 3, ParseIntDefault("x", 3))
}
