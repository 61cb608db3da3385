// Package forecast fits the registration-time model and produces the daily
// prediction, backfill, and probability-scoring tables built on it.
//
// A fit is one batch computation: weekly-aggregate the observations, build
// calendar features, optionally deseasonalize by a monthly multiplier
// profile, standardize, and train a Gaussian Process. The returned Model is
// immutable and serves any number of prediction calls within the run.
package forecast

import (
	"math"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/calendar"
	"github.com/KaiErikNiermann/roomnl-stats/internal/gp"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/transform"
)

// MinTrainingRows is the fit threshold: segments with fewer valid
// observations are skipped by callers rather than fitted.
const MinTrainingRows = 20

// zCI is the two-sided 95% confidence multiplier.
const zCI = 1.96

// TrainingRow is one week of the (deseasonalized) training table, retained
// on the model for diagnostics.
type TrainingRow struct {
	Date         time.Time `json:"date"`
	Value        float64   `json:"value"`
	YDeseasonal  float64   `json:"y_deseasonal"`
	FeatureShort []float64 `json:"-"`
}

// Model owns the fitted GP, the feature scaling state, the seasonal profile
// used at fit time, and the training table. Created once per Fit call;
// immutable thereafter; never persisted.
type Model struct {
	gp       *gp.GP
	scaler   *gp.Scaler
	profile  []model.MonthMultiplier
	training []TrainingRow
}

// Fit trains a model on raw observations, optionally deseasonalizing the
// target by profile (nil disables). Fewer than MinTrainingRows valid rows
// yields *InsufficientDataError; an optimizer failure yields *FitError.
func Fit(obs []model.Observation, profile []model.MonthMultiplier, cfg gp.Config) (*Model, error) {
	valid := transform.DropMissing(obs)
	if len(valid) < MinTrainingRows {
		return nil, &InsufficientDataError{Have: len(valid), Need: MinTrainingRows}
	}

	weekly := transform.WeeklyMean(valid)

	dates := make([]time.Time, len(weekly))
	for i, o := range weekly {
		dates[i] = o.Date
	}
	feats := calendar.BuildFeatures(dates)

	training := make([]TrainingRow, len(weekly))
	y := make([]float64, len(weekly))
	for i, o := range weekly {
		yv := o.Value
		if profile != nil {
			// Non-finite ratios are neutralized to 1.0: an always-available
			// forecast is preferred over exactness in degenerate months.
			ratio := yv / model.MultiplierFor(profile, o.Date.Month())
			if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
				ratio = 1.0
			}
			yv = ratio
		}
		y[i] = yv
		training[i] = TrainingRow{Date: o.Date, Value: o.Value, YDeseasonal: yv}
	}

	x := make([][]float64, len(feats))
	for i, f := range feats {
		x[i] = f.Vector()
	}

	scaler, err := gp.FitScaler(x)
	if err != nil {
		return nil, &FitError{Err: err}
	}
	xs, err := scaler.Transform(x)
	if err != nil {
		return nil, &FitError{Err: err}
	}

	g, err := gp.Fit(xs, y, cfg)
	if err != nil {
		return nil, &FitError{Err: err}
	}

	return &Model{gp: g, scaler: scaler, profile: profile, training: training}, nil
}

// Training returns the weekly training table, including the deseasonalized
// target column.
func (m *Model) Training() []TrainingRow {
	return m.training
}

// Kernel exposes the fitted covariance hyperparameters.
func (m *Model) Kernel() gp.Kernel {
	return m.gp.Kernel()
}

// PredictRange produces exactly one row per calendar day in [start, end]
// inclusive, at daily resolution. When the model was fitted with a seasonal
// profile, predictive mean and standard deviation are both multiplied by the
// day's month multiplier — the variance is assumed to scale with the same
// seasonal factor as the mean, a documented approximation. Bounds are
// lo = max(mean - 1.96*std, 0) and hi = mean + 1.96*std.
func (m *Model) PredictRange(start, end time.Time) ([]model.PredictionRow, error) {
	start = day(start)
	end = day(end)
	if end.Before(start) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	days := int(end.Sub(start).Hours()/24) + 1
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	feats := calendar.BuildFeatures(dates)
	x := make([][]float64, len(feats))
	for i, f := range feats {
		x[i] = f.Vector()
	}
	xs, err := m.scaler.Transform(x)
	if err != nil {
		return nil, err
	}

	mean, std, err := m.gp.Predict(xs)
	if err != nil {
		return nil, err
	}

	rows := make([]model.PredictionRow, days)
	for i := range dates {
		mu, sigma := mean[i], std[i]
		if m.profile != nil {
			mult := model.MultiplierFor(m.profile, dates[i].Month())
			mu *= mult
			sigma *= mult
		}
		rows[i] = model.PredictionRow{
			Date: dates[i],
			Mean: mu,
			Lo:   math.Max(mu-zCI*sigma, 0),
			Hi:   mu + zCI*sigma,
		}
	}
	return rows, nil
}

// FillMissing left-joins observations onto the prediction table's dates.
// Dates with an observed value keep it (Filled=false); all others take the
// predicted mean (Filled=true). Confidence bounds pass through unchanged.
func FillMissing(obs []model.Observation, preds []model.PredictionRow) []model.FilledObservation {
	observed := make(map[time.Time]float64, len(obs))
	for _, o := range obs {
		if !o.IsMissing() {
			observed[day(o.Date)] = o.Value
		}
	}

	out := make([]model.FilledObservation, len(preds))
	for i, p := range preds {
		row := model.FilledObservation{Date: p.Date, Lo: p.Lo, Hi: p.Hi}
		if v, ok := observed[day(p.Date)]; ok {
			row.Value = v
		} else {
			row.Value = p.Mean
			row.Filled = true
		}
		out[i] = row
	}
	return out
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
