// Package util provides shared utilities: date parsing and numeric value
// formatting used across commands and the pipeline packages.
package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ─── Date Parsing ─────────────────────────────────────────────────────────────

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a time.Time (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats a time.Time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Day truncates t to UTC midnight. The pipeline keys everything by calendar
// day, so all dates are normalised through this before use.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ─── Value Parsing ────────────────────────────────────────────────────────────

// ParseValue parses a numeric value string.
// Returns NaN for missing values ("." or empty string).
// Uses strconv.ParseFloat to avoid locale issues.
func ParseValue(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatValue formats a float64 for display, showing "." for NaN.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Round1 rounds v to one decimal place, matching the precision of the JSON
// artifacts the site consumes.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
