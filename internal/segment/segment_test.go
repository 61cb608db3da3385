package segment_test

import (
	"context"
	"testing"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/gp"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/segment"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// cityListings generates n listings for one segment with one contract per day
// starting 2024-01-01 and registration times on a smooth ramp.
func cityListings(city, room string, n int) []model.Listing {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Listing, n)
	for i := range out {
		out[i] = model.Listing{
			ContractDate:     start.AddDate(0, 0, i),
			City:             city,
			TypeOfRoom:       room,
			Street:           "Dorpsweg",
			StreetNumber:     "1",
			NumReactions:     20 + i,
			RegistrationTime: 600 + i,
		}
	}
	return out
}

func testOptions() segment.Options {
	return segment.Options{
		HorizonDays: 7,
		Today:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Workers:     2,
		GP:          &gp.Config{Jitter: 1e-6, Restarts: 1, Seed: 42},
	}
}

// ─── Key ──────────────────────────────────────────────────────────────────────

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  segment.Key
		want string
	}{
		{segment.Key{}, "global"},
		{segment.Key{City: "Delft"}, "Delft"},
		{segment.Key{City: "Delft", TypeOfRoom: "Room"}, "Delft/Room"},
	}
	for _, tc := range tests {
		if got := tc.key.String(); got != tc.want {
			t.Errorf("Key%+v: expected %q, got %q", tc.key, tc.want, got)
		}
	}
}

// ─── Run ──────────────────────────────────────────────────────────────────────

func TestRunEnumeratesSegmentsInOrder(t *testing.T) {
	listings := append(cityListings("Delft", "Room", 40), cityListings("Amsterdam", "Studio", 40)...)

	results := segment.Run(context.Background(), listings, testOptions())

	// global, 2 cities, 2 city/type combinations.
	if len(results) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(results))
	}
	want := []string{"global", "Amsterdam", "Delft", "Amsterdam/Studio", "Delft/Room"}
	for i, w := range want {
		if got := results[i].Key.String(); got != w {
			t.Errorf("segment %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestRunFitsLargeSegments(t *testing.T) {
	listings := cityListings("Delft", "Room", 60)

	results := segment.Run(context.Background(), listings, testOptions())
	if len(results) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(results))
	}
	for _, r := range results {
		if r.Skipped {
			t.Errorf("segment %s skipped: %s", r.Key, r.Reason)
			continue
		}
		if len(r.Predictions) == 0 {
			t.Errorf("segment %s produced no predictions", r.Key)
		}
	}
}

func TestRunSkipsUndersizedSegments(t *testing.T) {
	listings := append(cityListings("Delft", "Room", 40), cityListings("Leiden", "Studio", 5)...)

	results := segment.Run(context.Background(), listings, testOptions())

	byKey := make(map[string]segment.Result)
	for _, r := range results {
		byKey[r.Key.String()] = r
	}

	small := byKey["Leiden"]
	if !small.Skipped {
		t.Error("Leiden segment with 5 listings should be skipped")
	}
	if small.Reason == "" {
		t.Error("skipped segment should carry a reason")
	}
	if byKey["global"].Skipped {
		t.Errorf("global segment should still fit: %s", byKey["global"].Reason)
	}
	if byKey["Delft"].Skipped {
		t.Errorf("Delft segment should still fit: %s", byKey["Delft"].Reason)
	}
}

func TestRunTagsPredictionsWithSegment(t *testing.T) {
	listings := cityListings("Delft", "Room", 40)

	results := segment.Run(context.Background(), listings, testOptions())
	for _, r := range results {
		if r.Skipped {
			t.Fatalf("segment %s skipped: %s", r.Key, r.Reason)
		}
		for _, p := range r.Predictions {
			if p.City != r.Key.City || p.TypeOfRoom != r.Key.TypeOfRoom {
				t.Fatalf("segment %s: prediction tagged %q/%q", r.Key, p.City, p.TypeOfRoom)
			}
		}
	}
}

func TestRunPredictionRangeCoversHistoryAndHorizon(t *testing.T) {
	listings := cityListings("Delft", "Room", 40)
	opts := testOptions()

	results := segment.Run(context.Background(), listings, opts)
	preds := results[0].Predictions
	if len(preds) == 0 {
		t.Fatalf("no predictions: %s", results[0].Reason)
	}

	first := preds[0].Date
	last := preds[len(preds)-1].Date
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !first.Equal(want) {
		t.Errorf("range should start at earliest contract date, got %s", first.Format("2006-01-02"))
	}
	if want := opts.Today.AddDate(0, 0, opts.HorizonDays); !last.Equal(want) {
		t.Errorf("range should end at today+horizon, got %s", last.Format("2006-01-02"))
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := segment.Run(ctx, cityListings("Delft", "Room", 40), testOptions())
	for _, r := range results {
		if !r.Skipped {
			t.Errorf("segment %s should be skipped after cancellation", r.Key)
		}
	}
}

func TestRunEmptyCityGetsNoOwnSegment(t *testing.T) {
	listings := cityListings("Delft", "Room", 40)
	// Malformed rows without a city still count toward the global fit but
	// must not enumerate a duplicate global segment or a cross-city
	// Key{"", "Room"} segment.
	blank := cityListings("", "Room", 5)
	results := segment.Run(context.Background(), append(listings, blank...), testOptions())

	if len(results) != 3 {
		t.Fatalf("expected global + Delft + Delft/Room, got %d segments", len(results))
	}
	want := []string{"global", "Delft", "Delft/Room"}
	for i, w := range want {
		if got := results[i].Key.String(); got != w {
			t.Errorf("segment %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestRunEmptyRoomTypeGetsNoComboSegment(t *testing.T) {
	listings := cityListings("Delft", "Room", 40)
	// A Key{City, ""} combo would widen subset back to the whole city and
	// duplicate the per-city segment.
	blank := cityListings("Delft", "", 5)
	results := segment.Run(context.Background(), append(listings, blank...), testOptions())

	want := []string{"global", "Delft", "Delft/Room"}
	if len(results) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(results))
	}
	for i, w := range want {
		if got := results[i].Key.String(); got != w {
			t.Errorf("segment %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestRunNilGPUsesDefaults(t *testing.T) {
	listings := cityListings("Delft", "Room", 40)

	optsNil := testOptions()
	optsNil.GP = nil
	optsDefault := testOptions()
	cfg := gp.DefaultConfig()
	optsDefault.GP = &cfg

	a := segment.Run(context.Background(), listings, optsNil)
	b := segment.Run(context.Background(), listings, optsDefault)
	if len(a[0].Predictions) == 0 || len(b[0].Predictions) == 0 {
		t.Fatalf("fits failed: %s / %s", a[0].Reason, b[0].Reason)
	}
	for i := range a[0].Predictions {
		if a[0].Predictions[i].Mean != b[0].Predictions[i].Mean {
			t.Fatalf("nil GP config should fit with the defaults, row %d differs", i)
		}
	}
}

func TestRunHonorsExplicitZeroRestartConfig(t *testing.T) {
	opts := testOptions()
	opts.GP = &gp.Config{Jitter: 1e-6, Restarts: 0, Seed: 0}

	results := segment.Run(context.Background(), cityListings("Delft", "Room", 40), opts)
	for _, r := range results {
		if r.Skipped {
			t.Errorf("segment %s skipped with explicit config: %s", r.Key, r.Reason)
		}
	}
}

func TestRunSingleWorker(t *testing.T) {
	opts := testOptions()
	opts.Workers = 0 // coerced to 1

	results := segment.Run(context.Background(), cityListings("Delft", "Room", 30), opts)
	if len(results) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(results))
	}
	for _, r := range results {
		if r.Skipped {
			t.Errorf("segment %s skipped: %s", r.Key, r.Reason)
		}
	}
}
