// Package model defines the canonical data types used throughout roomnl-stats.
// These types are the single source of truth for scraped listing rows, the
// forecasting pipeline's intermediate tables, and the result envelope that
// every command returns.
package model

import (
	"math"
	"time"
)

// ─── Listings ─────────────────────────────────────────────────────────────────

// Listing is one recently-rented row scraped from roommatch.nl.
// RegistrationTime is the waiting time of the winning applicant in days,
// derived from "Registration time: X years, Y months, Z days".
type Listing struct {
	ContractDate     time.Time `json:"contract_date"`
	City             string    `json:"city"`
	TypeOfRoom       string    `json:"type_of_room"`
	Street           string    `json:"street"`
	StreetNumber     string    `json:"street_number"`
	NumReactions     int       `json:"num_reactions"`
	Priority         bool      `json:"priority"`
	RegistrationTime int       `json:"registration_time"` // days, >= 0
}

// Observation is a single data point in a time series.
// Value is NaN when the point is missing.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// IsMissing returns true if the observation value is NaN (missing data).
func (o Observation) IsMissing() bool {
	return math.IsNaN(o.Value)
}

// ListingObservations projects listings onto a (contract date, registration
// days) series, preserving input order.
func ListingObservations(listings []Listing) []Observation {
	obs := make([]Observation, len(listings))
	for i, l := range listings {
		obs[i] = Observation{Date: l.ContractDate, Value: float64(l.RegistrationTime)}
	}
	return obs
}

// ─── Calendar Features ────────────────────────────────────────────────────────

// FeatureRow is the academic-calendar feature vector for a single date.
// All fields are a pure deterministic function of Date.
type FeatureRow struct {
	Date     time.Time `json:"date"`
	Sin1     float64   `json:"sin1"`
	Cos1     float64   `json:"cos1"`
	Sin2     float64   `json:"sin2"`
	Cos2     float64   `json:"cos2"`
	PreSep   float64   `json:"pre_sep"`
	PreFeb   float64   `json:"pre_feb"`
	ExamJan  float64   `json:"exam_jan"`
	ExamJun  float64   `json:"exam_jun"`
	IsSummer float64   `json:"is_summer"`
	IsWinter float64   `json:"is_winter"`
}

// FeatureNames lists the feature columns in canonical order.
// Vector emits values in the same order; the two must stay in sync.
func FeatureNames() []string {
	return []string{
		"sin1", "cos1", "sin2", "cos2",
		"pre_sep", "pre_feb", "exam_jan", "exam_jun",
		"is_summer", "is_winter",
	}
}

// Vector flattens the feature row into a float slice in canonical order.
func (f FeatureRow) Vector() []float64 {
	return []float64{
		f.Sin1, f.Cos1, f.Sin2, f.Cos2,
		f.PreSep, f.PreFeb, f.ExamJan, f.ExamJun,
		f.IsSummer, f.IsWinter,
	}
}

// ─── Seasonal Profile ─────────────────────────────────────────────────────────

// MonthMultiplier is one row of a seasonal profile: a positive multiplier for
// a calendar month. A complete profile has exactly 12 rows (months 1-12)
// whose multipliers average to 1.0.
type MonthMultiplier struct {
	Month      time.Month `json:"month"`
	Multiplier float64    `json:"month_multiplier"`
}

// MultiplierFor returns the profile's multiplier for month m, or 1.0 when the
// profile is nil/incomplete or carries a non-finite value.
func MultiplierFor(profile []MonthMultiplier, m time.Month) float64 {
	for _, row := range profile {
		if row.Month == m {
			if math.IsNaN(row.Multiplier) || math.IsInf(row.Multiplier, 0) {
				return 1.0
			}
			return row.Multiplier
		}
	}
	return 1.0
}

// TrendRow is one month of external trend data consumed by the multiplier
// builder. Later rows for the same month supersede earlier ones.
type TrendRow struct {
	Month time.Month `json:"month"`
	Value float64    `json:"value"`
}

// ─── Predictions ──────────────────────────────────────────────────────────────

// PredictionRow is one day of model output. Invariant: 0 <= Lo <= Mean <= Hi.
// City and TypeOfRoom are empty for the global segment.
type PredictionRow struct {
	Date       time.Time `json:"date"`
	Mean       float64   `json:"pred_mean"`
	Lo         float64   `json:"pred_lo"`
	Hi         float64   `json:"pred_hi"`
	City       string    `json:"city,omitempty"`
	TypeOfRoom string    `json:"type_of_room,omitempty"`
}

// FilledObservation is one day of the backfilled series: the observed value
// when one exists, the predicted mean otherwise.
type FilledObservation struct {
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Lo     float64   `json:"pred_lo"`
	Hi     float64   `json:"pred_hi"`
	Filled bool      `json:"filled"`
}

// ScoredPrediction extends a prediction row with a caller-supplied target
// value, the probability (%) the target is good enough under the Normal
// predictive distribution, and the target's relative position within the
// confidence interval (%).
type ScoredPrediction struct {
	PredictionRow
	Target      float64 `json:"my_time"`
	Probability float64 `json:"prob_good_enough"` // 0..100
	CIPct       float64 `json:"ci_pct"`           // 0..100
}

// ─── Aggregate Stats ──────────────────────────────────────────────────────────

// SegmentStats holds aggregate listing statistics for one (city, room type)
// group.
type SegmentStats struct {
	City            string  `json:"city"`
	TypeOfRoom      string  `json:"type_of_room"`
	Count           int     `json:"count"`
	MedianRegDays   float64 `json:"median_reg_days"`
	MeanRegDays     float64 `json:"mean_reg_days"`
	MinRegDays      float64 `json:"min_reg_days"`
	MaxRegDays      float64 `json:"max_reg_days"`
	MedianReactions float64 `json:"median_reactions"`
	PctPriority     float64 `json:"pct_priority"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries performance metadata for a command result.
type ResultStats struct {
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindListings    = "listings"
	KindSeriesData  = "series_data"
	KindPredictions = "predictions"
	KindScored      = "scored_predictions"
	KindMultiplier  = "multiplier"
	KindStats       = "stats"
	KindReport      = "report"
	KindTable       = "table"
)
