package seasonal_test

import (
	"math"
	"testing"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/seasonal"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// fullYear builds 12 trend rows from the provided values, January first.
func fullYear(values ...float64) []model.TrendRow {
	rows := make([]model.TrendRow, len(values))
	for i, v := range values {
		rows[i] = model.TrendRow{Month: time.Month(i + 1), Value: v}
	}
	return rows
}

func profileMean(t *testing.T, profile []model.MonthMultiplier) float64 {
	t.Helper()
	if len(profile) != 12 {
		t.Fatalf("expected 12 months, got %d", len(profile))
	}
	var sum float64
	for _, m := range profile {
		sum += m.Multiplier
	}
	return sum / 12.0
}

// ─── BuildMultiplier ──────────────────────────────────────────────────────────

func TestBuildMultiplierMeanIsOne(t *testing.T) {
	rows := fullYear(100, 110, 120, 95, 90, 85, 70, 75, 140, 130, 105, 100)
	profile, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	if mean := profileMean(t, profile); math.Abs(mean-1.0) > 1e-9 {
		t.Errorf("profile mean: expected 1.0, got %g", mean)
	}
}

func TestBuildMultiplierOrderedMonths(t *testing.T) {
	rows := fullYear(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	profile, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	for i, m := range profile {
		if m.Month != time.Month(i+1) {
			t.Errorf("profile[%d].Month: expected %v, got %v", i, time.Month(i+1), m.Month)
		}
	}
}

func TestBuildMultiplierPreservesShape(t *testing.T) {
	// September's demand peak must be the profile's maximum
	rows := fullYear(100, 100, 100, 100, 100, 100, 100, 100, 200, 100, 100, 100)
	profile, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	sep := profile[8].Multiplier
	for i, m := range profile {
		if i != 8 && m.Multiplier >= sep {
			t.Errorf("%v multiplier %g should be below September's %g", m.Month, m.Multiplier, sep)
		}
	}
	if sep <= 1.0 {
		t.Errorf("September should be above the neutral 1.0, got %g", sep)
	}
}

func TestBuildMultiplierMissingMonthsFilled(t *testing.T) {
	// Only three months given — the rest take the mean and land at a
	// neutral-ish multiplier after normalization
	rows := []model.TrendRow{
		{Month: time.January, Value: 100},
		{Month: time.June, Value: 100},
		{Month: time.September, Value: 100},
	}
	profile, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	if len(profile) != 12 {
		t.Fatalf("expected 12 months, got %d", len(profile))
	}
	for _, m := range profile {
		if math.Abs(m.Multiplier-1.0) > 1e-9 {
			t.Errorf("%v: all-equal input should give 1.0 everywhere, got %g", m.Month, m.Multiplier)
		}
	}
}

func TestBuildMultiplierDuplicateMonthLatestWins(t *testing.T) {
	rows := fullYear(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100)
	rows = append(rows, model.TrendRow{Month: time.September, Value: 220})

	profile, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	if profile[8].Multiplier <= 1.0 {
		t.Errorf("later September row (220) should win over earlier (100), got %g", profile[8].Multiplier)
	}
}

func TestBuildMultiplierNaNRowsSkipped(t *testing.T) {
	rows := fullYear(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100)
	rows[3].Value = math.NaN()
	rows[7].Value = math.Inf(1)

	profile, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	// Non-finite rows skipped; the gaps fill with the mean of the rest
	for _, m := range profile {
		if math.IsNaN(m.Multiplier) || math.IsInf(m.Multiplier, 0) {
			t.Errorf("%v: non-finite multiplier leaked through: %g", m.Month, m.Multiplier)
		}
	}
}

func TestBuildMultiplierStrengthZeroFlattens(t *testing.T) {
	rows := fullYear(50, 200, 80, 120, 90, 150, 60, 110, 300, 70, 100, 130)
	profile, err := seasonal.BuildMultiplier(rows, seasonal.Options{Strength: 0})
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	for _, m := range profile {
		if m.Multiplier != 1.0 {
			t.Errorf("%v: strength 0 should flatten to 1.0, got %g", m.Month, m.Multiplier)
		}
	}
}

func TestBuildMultiplierStrengthAmplifies(t *testing.T) {
	rows := fullYear(100, 100, 100, 100, 100, 100, 100, 100, 200, 100, 100, 100)
	base, err := seasonal.BuildMultiplier(rows, seasonal.Options{Strength: 1})
	if err != nil {
		t.Fatalf("BuildMultiplier strength 1: %v", err)
	}
	amp, err := seasonal.BuildMultiplier(rows, seasonal.Options{Strength: 2})
	if err != nil {
		t.Fatalf("BuildMultiplier strength 2: %v", err)
	}
	if amp[8].Multiplier <= base[8].Multiplier {
		t.Errorf("strength 2 should amplify the peak: %g vs %g", amp[8].Multiplier, base[8].Multiplier)
	}
}

func TestBuildMultiplierSmoothingSpreadsPeak(t *testing.T) {
	rows := fullYear(100, 100, 100, 100, 100, 100, 100, 100, 400, 100, 100, 100)
	sharp, err := seasonal.BuildMultiplier(rows, seasonal.Options{Strength: 1})
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	smooth, err := seasonal.BuildMultiplier(rows, seasonal.Options{Strength: 1, SmoothRadius: 1})
	if err != nil {
		t.Fatalf("BuildMultiplier smoothed: %v", err)
	}
	// Smoothing lowers the peak and lifts its neighbours
	if smooth[8].Multiplier >= sharp[8].Multiplier {
		t.Errorf("smoothed peak %g should be below sharp peak %g", smooth[8].Multiplier, sharp[8].Multiplier)
	}
	if smooth[7].Multiplier <= sharp[7].Multiplier {
		t.Errorf("smoothed August %g should be above sharp August %g", smooth[7].Multiplier, sharp[7].Multiplier)
	}
}

func TestBuildMultiplierSmoothingWrapsYearBoundary(t *testing.T) {
	// December peak should lift January through the circular window
	rows := fullYear(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 400)
	smooth, err := seasonal.BuildMultiplier(rows, seasonal.Options{Strength: 1, SmoothRadius: 1})
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	if smooth[0].Multiplier <= smooth[5].Multiplier {
		t.Errorf("January (adjacent to December peak) should exceed June: %g vs %g",
			smooth[0].Multiplier, smooth[5].Multiplier)
	}
}

// ─── Validation errors ────────────────────────────────────────────────────────

func TestBuildMultiplierEmptyInput(t *testing.T) {
	_, err := seasonal.BuildMultiplier(nil, seasonal.DefaultOptions())
	if err == nil {
		t.Error("expected error for empty input")
	}
}

func TestBuildMultiplierAllNaN(t *testing.T) {
	rows := []model.TrendRow{
		{Month: time.January, Value: math.NaN()},
		{Month: time.February, Value: math.NaN()},
	}
	_, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err == nil {
		t.Error("expected error when no finite values provided")
	}
}

func TestBuildMultiplierInvalidMonth(t *testing.T) {
	rows := []model.TrendRow{{Month: time.Month(13), Value: 100}}
	_, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err == nil {
		t.Error("expected error for month 13")
	}
}

func TestBuildMultiplierNegativeStrength(t *testing.T) {
	rows := fullYear(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	_, err := seasonal.BuildMultiplier(rows, seasonal.Options{Strength: -1})
	if err == nil {
		t.Error("expected error for negative strength")
	}
}

func TestBuildMultiplierNegativeRadius(t *testing.T) {
	rows := fullYear(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	_, err := seasonal.BuildMultiplier(rows, seasonal.Options{Strength: 1, SmoothRadius: -2})
	if err == nil {
		t.Error("expected error for negative smooth radius")
	}
}

func TestBuildMultiplierZeroSum(t *testing.T) {
	rows := fullYear(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	_, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err == nil {
		t.Error("expected error for all-zero trend values")
	}
}

// ─── MultiplierFor ────────────────────────────────────────────────────────────

func TestMultiplierForLookup(t *testing.T) {
	rows := fullYear(100, 100, 100, 100, 100, 100, 100, 100, 200, 100, 100, 100)
	profile, err := seasonal.BuildMultiplier(rows, seasonal.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildMultiplier: %v", err)
	}
	got := model.MultiplierFor(profile, time.September)
	if got != profile[8].Multiplier {
		t.Errorf("MultiplierFor(September): expected %g, got %g", profile[8].Multiplier, got)
	}
}

func TestMultiplierForMissingDefaultsToOne(t *testing.T) {
	if got := model.MultiplierFor(nil, time.May); got != 1.0 {
		t.Errorf("nil profile should return 1.0, got %g", got)
	}
}

func TestMultiplierForNonFiniteDefaultsToOne(t *testing.T) {
	profile := []model.MonthMultiplier{{Month: time.May, Multiplier: math.NaN()}}
	if got := model.MultiplierFor(profile, time.May); got != 1.0 {
		t.Errorf("NaN multiplier should return 1.0, got %g", got)
	}
}
