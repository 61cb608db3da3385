package forecast

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

// Direction selects how a target compares against the predictive
// distribution.
type Direction string

const (
	// AtLeast scores P(Y <= target): lower required registration time is
	// better, so a target at or below the prediction is favorable.
	AtLeast Direction = "at_least"
	// AtMost scores P(Y >= target), for metrics where higher is better.
	AtMost Direction = "at_most"
)

// sigmaFloor guards the implied standard deviation against a degenerate
// zero-width interval.
const sigmaFloor = 1e-9

// Score annotates each prediction row with the probability (%) that the
// caller's target value is good enough under the Normal predictive
// distribution, and with the target's relative position inside the
// confidence interval (%).
//
// The standard deviation is re-derived from the interval width,
// sigma = max((hi-lo)/(2*1.96), 1e-9), so scoring needs only the published
// prediction table, not the fitted model.
func Score(preds []model.PredictionRow, target func(time.Time) float64, dir Direction) ([]model.ScoredPrediction, error) {
	if dir != AtLeast && dir != AtMost {
		return nil, fmt.Errorf("score: unknown direction %q (use at_least or at_most)", dir)
	}

	normal := distuv.UnitNormal
	out := make([]model.ScoredPrediction, len(preds))
	for i, p := range preds {
		t := target(p.Date)

		sigma := (p.Hi - p.Lo) / (2 * zCI)
		if sigma < sigmaFloor {
			sigma = sigmaFloor
		}
		cdf := normal.CDF((t - p.Mean) / sigma)

		prob := cdf
		if dir == AtMost {
			prob = 1 - cdf
		}

		out[i] = model.ScoredPrediction{
			PredictionRow: p,
			Target:        t,
			Probability:   prob * 100,
			CIPct:         ciPct(t, p.Lo, p.Hi),
		}
	}
	return out, nil
}

// ciPct places target within [lo, hi] as a percentage, clamped to [0, 100].
// A zero-width interval maps below/inside/above to 0/50/100.
func ciPct(target, lo, hi float64) float64 {
	if hi == lo {
		switch {
		case target < lo:
			return 0
		case target > hi:
			return 100
		default:
			return 50
		}
	}
	pos := (target - lo) / (hi - lo)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos * 100
}
