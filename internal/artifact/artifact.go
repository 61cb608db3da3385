// Package artifact writes the JSON data files consumed by the static
// frontend: the full listings table, daily predictions with confidence
// intervals, and the per-segment statistics.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/util"
)

// Output file names under the artifact directory.
const (
	ListingsFile    = "recently_rented.json"
	PredictionsFile = "predictions.json"
	StatsFile       = "stats.json"
)

// listingRow is the JSON shape of one listing.
type listingRow struct {
	ContractDate     string `json:"contract_date"`
	City             string `json:"city"`
	TypeOfRoom       string `json:"type_of_room"`
	Street           string `json:"street"`
	StreetNumber     string `json:"street_number"`
	NumReactions     int    `json:"num_reactions"`
	Priority         bool   `json:"priority"`
	RegistrationTime int    `json:"registration_time"`
}

// predictionRow is the JSON shape of one prediction. City and TypeOfRoom are
// pointers so the global and per-city segments serialize as null, which is
// what the frontend filters on.
type predictionRow struct {
	ContractDate string  `json:"contract_date"`
	PredMean     float64 `json:"pred_mean"`
	PredLo       float64 `json:"pred_lo"`
	PredHi       float64 `json:"pred_hi"`
	City         *string `json:"city"`
	TypeOfRoom   *string `json:"type_of_room"`
}

// WriteAll writes all three artifacts into dir, creating it if needed.
// Listings and stats are indented for diffability; predictions are compact
// because the file runs to hundreds of thousands of rows.
func WriteAll(dir string, listings []model.Listing, preds []model.PredictionRow, stats []model.SegmentStats) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, ListingsFile), listingRows(listings), true); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, PredictionsFile), predictionRows(preds), false); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, StatsFile), stats, true)
}

// WritePredictions writes only the predictions artifact.
func WritePredictions(dir string, preds []model.PredictionRow) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	return writeJSON(filepath.Join(dir, PredictionsFile), predictionRows(preds), false)
}

func listingRows(listings []model.Listing) []listingRow {
	rows := make([]listingRow, len(listings))
	for i, l := range listings {
		rows[i] = listingRow{
			ContractDate:     util.FormatDate(l.ContractDate),
			City:             l.City,
			TypeOfRoom:       l.TypeOfRoom,
			Street:           l.Street,
			StreetNumber:     l.StreetNumber,
			NumReactions:     l.NumReactions,
			Priority:         l.Priority,
			RegistrationTime: l.RegistrationTime,
		}
	}
	return rows
}

func predictionRows(preds []model.PredictionRow) []predictionRow {
	rows := make([]predictionRow, len(preds))
	for i, p := range preds {
		rows[i] = predictionRow{
			ContractDate: util.FormatDate(p.Date),
			PredMean:     util.Round1(p.Mean),
			PredLo:       util.Round1(p.Lo),
			PredHi:       util.Round1(p.Hi),
			City:         nullable(p.City),
			TypeOfRoom:   nullable(p.TypeOfRoom),
		}
	}
	return rows
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// writeJSON marshals v and writes it atomically via a temp file rename, so
// the frontend never sees a half-written artifact.
func writeJSON(path string, v interface{}, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
