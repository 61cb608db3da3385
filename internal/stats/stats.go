// Package stats computes statistical summaries over listings and series.
// All functions are pure; no I/O.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

// ─── Segment aggregation ──────────────────────────────────────────────────────

// Aggregate groups listings by (city, room type) and computes per-group
// descriptive statistics over registration time, reactions, and priority.
// Output is sorted by city, then room type.
func Aggregate(listings []model.Listing) []model.SegmentStats {
	groups := make(map[[2]string][]model.Listing)
	for _, l := range listings {
		k := [2]string{l.City, l.TypeOfRoom}
		groups[k] = append(groups[k], l)
	}

	out := make([]model.SegmentStats, 0, len(groups))
	for k, group := range groups {
		regDays := make([]float64, len(group))
		reactions := make([]float64, len(group))
		priority := 0
		for i, l := range group {
			regDays[i] = float64(l.RegistrationTime)
			reactions[i] = float64(l.NumReactions)
			if l.Priority {
				priority++
			}
		}
		sort.Float64s(regDays)
		sort.Float64s(reactions)

		out = append(out, model.SegmentStats{
			City:            k[0],
			TypeOfRoom:      k[1],
			Count:           len(group),
			MedianRegDays:   percentile(regDays, 50),
			MeanRegDays:     sumF(regDays) / float64(len(regDays)),
			MinRegDays:      regDays[0],
			MaxRegDays:      regDays[len(regDays)-1],
			MedianReactions: percentile(reactions, 50),
			PctPriority:     float64(priority) / float64(len(group)) * 100,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].TypeOfRoom < out[j].TypeOfRoom
	})
	return out
}

// ─── Monthly trend ────────────────────────────────────────────────────────────

// MonthlyMeans aggregates listings to one trend row per calendar month: the
// mean registration time of every listing whose contract date falls in that
// month, pooled across years. Months with no listings produce no row. The
// seasonal profile builder consumes these rows; feeding it raw listings
// instead would key each month to a single listing.
func MonthlyMeans(listings []model.Listing) []model.TrendRow {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for _, l := range listings {
		m := l.ContractDate.Month()
		sums[m] += float64(l.RegistrationTime)
		counts[m]++
	}

	out := make([]model.TrendRow, 0, len(sums))
	for m := time.January; m <= time.December; m++ {
		if counts[m] == 0 {
			continue
		}
		out = append(out, model.TrendRow{Month: m, Value: sums[m] / float64(counts[m])})
	}
	return out
}

// ─── Series summary ───────────────────────────────────────────────────────────

// Summary holds descriptive statistics for a series.
type Summary struct {
	Count      int     `json:"count"`       // total observations
	Missing    int     `json:"missing"`     // NaN count
	MissingPct float64 `json:"missing_pct"` // percent missing
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	Min        float64 `json:"min"`
	P25        float64 `json:"p25"`
	Median     float64 `json:"median"`
	P75        float64 `json:"p75"`
	Max        float64 `json:"max"`
	First      float64 `json:"first"`      // first non-NaN value
	Last       float64 `json:"last"`       // last non-NaN value
	Change     float64 `json:"change"`     // Last - First
	ChangePct  float64 `json:"change_pct"` // (Last-First)/First * 100
}

// Summarize computes descriptive statistics over obs.
// NaN values are excluded from all numeric computations but counted.
func Summarize(obs []model.Observation) Summary {
	s := Summary{Count: len(obs)}
	if len(obs) == 0 {
		return s
	}

	var vals []float64
	for _, o := range obs {
		if math.IsNaN(o.Value) {
			s.Missing++
		} else {
			vals = append(vals, o.Value)
		}
	}
	s.MissingPct = float64(s.Missing) / float64(s.Count) * 100
	if len(vals) == 0 {
		s.Mean = math.NaN()
		s.Std = math.NaN()
		s.Min = math.NaN()
		s.Max = math.NaN()
		s.Median = math.NaN()
		s.P25 = math.NaN()
		s.P75 = math.NaN()
		s.First = math.NaN()
		s.Last = math.NaN()
		s.Change = math.NaN()
		s.ChangePct = math.NaN()
		return s
	}

	// Sort for percentile computation
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = sumF(vals) / float64(len(vals))
	s.Std = stddevF(vals, s.Mean)
	s.Median = percentile(sorted, 50)
	s.P25 = percentile(sorted, 25)
	s.P75 = percentile(sorted, 75)

	// First and last non-NaN values in original order
	for _, o := range obs {
		if !math.IsNaN(o.Value) {
			s.First = o.Value
			break
		}
	}
	for i := len(obs) - 1; i >= 0; i-- {
		if !math.IsNaN(obs[i].Value) {
			s.Last = obs[i].Value
			break
		}
	}
	s.Change = s.Last - s.First
	if s.First != 0 {
		s.ChangePct = s.Change / math.Abs(s.First) * 100
	} else {
		s.ChangePct = math.NaN()
	}

	return s
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

func sumF(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func stddevF(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sq float64
	for _, v := range vals {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)-1))
}

// percentile interpolates linearly over an ascending-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	idx := p / 100 * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
