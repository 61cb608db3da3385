package artifact_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/artifact"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func sampleListings() []model.Listing {
	return []model.Listing{
		{
			ContractDate:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			City:             "Amsterdam",
			TypeOfRoom:       "Room",
			Street:           "Kanaalstraat",
			StreetNumber:     "12",
			NumReactions:     64,
			Priority:         true,
			RegistrationTime: 825,
		},
	}
}

func samplePreds() []model.PredictionRow {
	return []model.PredictionRow{
		{
			Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			Mean: 612.345, Lo: 500.111, Hi: 724.999,
		},
		{
			Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
			Mean: 615, Lo: 503, Hi: 727,
			City: "Delft", TypeOfRoom: "Room",
		},
	}
}

func readArtifact(t *testing.T, dir, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return data
}

// ─── WriteAll ─────────────────────────────────────────────────────────────────

func TestWriteAllCreatesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")

	err := artifact.WriteAll(dir, sampleListings(), samplePreds(), []model.SegmentStats{
		{City: "Amsterdam", TypeOfRoom: "Room", Count: 1},
	})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	for _, name := range []string{artifact.ListingsFile, artifact.PredictionsFile, artifact.StatsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestWriteAllListingShape(t *testing.T) {
	dir := t.TempDir()
	if err := artifact.WriteAll(dir, sampleListings(), nil, nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(readArtifact(t, dir, artifact.ListingsFile), &rows); err != nil {
		t.Fatalf("unmarshal listings: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 listing row, got %d", len(rows))
	}

	row := rows[0]
	if row["contract_date"] != "2025-03-14" {
		t.Errorf("contract_date: got %v", row["contract_date"])
	}
	if row["city"] != "Amsterdam" || row["street"] != "Kanaalstraat" || row["street_number"] != "12" {
		t.Errorf("address fields: got %v / %v / %v", row["city"], row["street"], row["street_number"])
	}
	if row["priority"] != true {
		t.Errorf("priority: got %v", row["priority"])
	}
	if row["registration_time"].(float64) != 825 {
		t.Errorf("registration_time: got %v", row["registration_time"])
	}
}

func TestWriteAllPredictionShape(t *testing.T) {
	dir := t.TempDir()
	if err := artifact.WriteAll(dir, nil, samplePreds(), nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(readArtifact(t, dir, artifact.PredictionsFile), &rows); err != nil {
		t.Fatalf("unmarshal predictions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 prediction rows, got %d", len(rows))
	}

	global := rows[0]
	if global["contract_date"] != "2025-04-01" {
		t.Errorf("contract_date: got %v", global["contract_date"])
	}
	// Values are rounded to one decimal for the frontend.
	if global["pred_mean"].(float64) != 612.3 {
		t.Errorf("pred_mean: expected 612.3, got %v", global["pred_mean"])
	}
	if global["pred_lo"].(float64) != 500.1 || global["pred_hi"].(float64) != 725.0 {
		t.Errorf("bounds: got lo=%v hi=%v", global["pred_lo"], global["pred_hi"])
	}
	// The global segment serializes city and room type as explicit nulls.
	if v, ok := global["city"]; !ok || v != nil {
		t.Errorf("global city: expected null, got %v (present=%v)", v, ok)
	}

	segment := rows[1]
	if segment["city"] != "Delft" || segment["type_of_room"] != "Room" {
		t.Errorf("segment fields: got %v / %v", segment["city"], segment["type_of_room"])
	}
}

func TestWriteAllIndentation(t *testing.T) {
	dir := t.TempDir()
	if err := artifact.WriteAll(dir, sampleListings(), samplePreds(), nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	listings := string(readArtifact(t, dir, artifact.ListingsFile))
	if !strings.Contains(listings, "\n  ") {
		t.Error("listings artifact should be indented")
	}
	preds := string(readArtifact(t, dir, artifact.PredictionsFile))
	if strings.Contains(preds, "\n") {
		t.Error("predictions artifact should be compact")
	}
}

func TestWriteAllNoLeftoverTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := artifact.WriteAll(dir, sampleListings(), samplePreds(), nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

// ─── WritePredictions ─────────────────────────────────────────────────────────

func TestWritePredictionsOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	if err := artifact.WritePredictions(dir, samplePreds()); err != nil {
		t.Fatalf("WritePredictions: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, artifact.PredictionsFile)); err != nil {
		t.Errorf("missing predictions artifact: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, artifact.ListingsFile)); !os.IsNotExist(err) {
		t.Error("listings artifact should not be written")
	}
}

func TestWritePredictionsOverwrites(t *testing.T) {
	dir := t.TempDir()
	if err := artifact.WritePredictions(dir, samplePreds()); err != nil {
		t.Fatalf("WritePredictions: %v", err)
	}
	if err := artifact.WritePredictions(dir, samplePreds()[:1]); err != nil {
		t.Fatalf("WritePredictions (second): %v", err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(readArtifact(t, dir, artifact.PredictionsFile), &rows); err != nil {
		t.Fatalf("unmarshal predictions: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected artifact replaced with 1 row, got %d", len(rows))
	}
}
