// Package seasonal builds monthly multiplier profiles from external trend
// data. A profile is a multiplicative seasonal curve: dividing observed
// values by their month's multiplier removes the known yearly cycle before
// model fitting, and multiplying predictions restores it afterwards.
package seasonal

import (
	"fmt"
	"math"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

// Options controls multiplier construction.
type Options struct {
	// Strength tempers the profile via value^Strength after normalization.
	// 1 is a no-op, 0 flattens to a constant-1 profile, >1 amplifies the
	// seasonal swing. Defaults to 1 when zero-valued construction is not
	// intended; use DefaultOptions for the documented defaults.
	Strength float64
	// SmoothRadius circularly smooths the 12 monthly values: each month
	// becomes the mean of the 2*radius+1 values centered on it, indices
	// wrapping modulo 12. 0 disables smoothing.
	SmoothRadius int
}

// DefaultOptions returns the documented defaults: strength 1.0, no smoothing.
func DefaultOptions() Options {
	return Options{Strength: 1.0, SmoothRadius: 0}
}

// BuildMultiplier converts monthly trend rows into a 12-row multiplicative
// profile whose mean is exactly 1.0.
//
// Duplicate months are deduplicated keeping the latest row. Months absent
// from the input are filled with the mean of the provided values before
// normalization, so an incomplete input still yields a complete, neutral-mean
// profile.
func BuildMultiplier(rows []model.TrendRow, opts Options) ([]model.MonthMultiplier, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("multiplier: no trend rows provided")
	}
	if opts.SmoothRadius < 0 {
		return nil, fmt.Errorf("multiplier: smooth radius must be >= 0, got %d", opts.SmoothRadius)
	}
	if opts.Strength < 0 {
		return nil, fmt.Errorf("multiplier: strength must be >= 0, got %g", opts.Strength)
	}

	// Dedupe by month, latest row wins.
	provided := make(map[time.Month]float64)
	for _, r := range rows {
		if r.Month < time.January || r.Month > time.December {
			return nil, fmt.Errorf("multiplier: invalid month %d", r.Month)
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		provided[r.Month] = r.Value
	}
	if len(provided) == 0 {
		return nil, fmt.Errorf("multiplier: no finite trend values provided")
	}

	// Fill the 1-12 scaffold; missing months get the mean of provided values.
	var mu float64
	for _, v := range provided {
		mu += v
	}
	mu /= float64(len(provided))

	vals := make([]float64, 12)
	for m := 0; m < 12; m++ {
		if v, ok := provided[time.Month(m+1)]; ok {
			vals[m] = v
		} else {
			vals[m] = mu
		}
	}

	if opts.SmoothRadius > 0 {
		vals = circularSmooth(vals, opts.SmoothRadius)
	}

	// Normalize so the 12-value mean is exactly 1.0.
	var total float64
	for _, v := range vals {
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("multiplier: trend values sum to zero, cannot normalize")
	}
	scale := 12.0 / total
	for i := range vals {
		vals[i] *= scale
	}

	if opts.Strength != 1.0 {
		for i := range vals {
			vals[i] = math.Pow(vals[i], opts.Strength)
		}
	}

	profile := make([]model.MonthMultiplier, 12)
	for m := 0; m < 12; m++ {
		profile[m] = model.MonthMultiplier{Month: time.Month(m + 1), Multiplier: vals[m]}
	}
	return profile, nil
}

// circularSmooth replaces each value with the mean of the 2r+1 window
// centered on it, wrapping indices modulo 12.
func circularSmooth(vals []float64, radius int) []float64 {
	out := make([]float64, len(vals))
	n := len(vals)
	for i := range vals {
		var s float64
		for k := -radius; k <= radius; k++ {
			s += vals[((i+k)%n+n)%n]
		}
		out[i] = s / float64(2*radius+1)
	}
	return out
}
