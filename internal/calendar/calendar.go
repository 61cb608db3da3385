// Package calendar builds academic-calendar feature vectors from dates.
// All functions are pure; no I/O, no hidden state. The features encode the
// Dutch student-housing cycle: yearly seasonality (Fourier terms), bumps
// around semester starts and exam windows, and holiday flags.
package calendar

import (
	"math"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

// yearLen is the Fourier period in days, including the leap-year correction.
const yearLen = 365.25

// Anchors for the Gaussian bump features. Each anchor is recomputed in the
// year of the date being featurised, so the bump repeats annually.
var anchors = []struct {
	month time.Month
	day   int
	sigma float64
	set   func(*model.FeatureRow, float64)
}{
	{time.September, 1, 20, func(f *model.FeatureRow, v float64) { f.PreSep = v }},
	{time.February, 1, 15, func(f *model.FeatureRow, v float64) { f.PreFeb = v }},
	{time.January, 31, 12, func(f *model.FeatureRow, v float64) { f.ExamJan = v }},
	{time.June, 30, 12, func(f *model.FeatureRow, v float64) { f.ExamJun = v }},
}

// BuildFeatures computes one FeatureRow per input date, in input order.
// Dates need not be unique or sorted.
func BuildFeatures(dates []time.Time) []model.FeatureRow {
	rows := make([]model.FeatureRow, len(dates))
	for i, d := range dates {
		rows[i] = buildOne(d)
	}
	return rows
}

func buildOne(d time.Time) model.FeatureRow {
	f := model.FeatureRow{Date: d}

	doy := float64(d.YearDay())
	w := 2 * math.Pi / yearLen
	f.Sin1 = math.Sin(doy * w)
	f.Cos1 = math.Cos(doy * w)
	f.Sin2 = math.Sin(doy * 2 * w)
	f.Cos2 = math.Cos(doy * 2 * w)

	for _, a := range anchors {
		a.set(&f, gaussBump(daysToAnchor(d, a.month, a.day), a.sigma))
	}

	if d.Month() == time.July || d.Month() == time.August {
		f.IsSummer = 1
	}
	// Winter break straddles the year boundary; the two halves are OR'd
	// rather than measured as a distance across it.
	if (d.Month() == time.December && d.Day() >= 20) ||
		(d.Month() == time.January && d.Day() <= 7) {
		f.IsWinter = 1
	}
	return f
}

// gaussBump is a smooth bump in (0, 1], peaking when the date sits on the
// anchor: exp(-0.5 * (days/sigma)^2).
func gaussBump(days, sigma float64) float64 {
	z := days / sigma
	return math.Exp(-0.5 * z * z)
}

// daysToAnchor returns the signed distance in days from the date to the
// anchor (month, day) of the date's own year.
func daysToAnchor(d time.Time, month time.Month, day int) float64 {
	anchor := time.Date(d.Year(), month, day, 0, 0, 0, 0, time.UTC)
	day0 := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return day0.Sub(anchor).Hours() / 24
}
