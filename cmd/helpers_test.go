package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/store"
)

func TestResolveFormatPrecedence(t *testing.T) {
	globalFlags.Format = ""
	if got := resolveFormat(""); got != "table" {
		t.Fatalf("expected table fallback, got %q", got)
	}
	if got := resolveFormat("csv"); got != "csv" {
		t.Fatalf("expected config format to win over fallback, got %q", got)
	}

	globalFlags.Format = "json"
	t.Cleanup(func() { globalFlags.Format = "" })
	if got := resolveFormat("csv"); got != "json" {
		t.Fatalf("expected flag format to win over config, got %q", got)
	}
}

func TestLoadListingsFilters(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	batch := []model.Listing{
		{City: "Amsterdam", TypeOfRoom: "Room", Street: "Hoofdstraat", StreetNumber: "1", ContractDate: date, RegistrationTime: 900},
		{City: "Amsterdam", TypeOfRoom: "Studio", Street: "Kerkweg", StreetNumber: "2", ContractDate: date, RegistrationTime: 1200},
		{City: "Delft", TypeOfRoom: "Room", Street: "Marktplein", StreetNumber: "3", ContractDate: date, RegistrationTime: 600},
	}
	if _, err := st.PutListings(batch); err != nil {
		t.Fatalf("storing listings: %v", err)
	}

	all, err := loadListings(st, "", "")
	if err != nil {
		t.Fatalf("loading all listings: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(all))
	}

	ams, err := loadListings(st, "Amsterdam", "")
	if err != nil {
		t.Fatalf("loading city filter: %v", err)
	}
	if len(ams) != 2 {
		t.Fatalf("expected 2 Amsterdam listings, got %d", len(ams))
	}

	studio, err := loadListings(st, "Amsterdam", "Studio")
	if err != nil {
		t.Fatalf("loading city+type filter: %v", err)
	}
	if len(studio) != 1 || studio[0].Street != "Kerkweg" {
		t.Fatalf("unexpected city+type result: %+v", studio)
	}

	if _, err := loadListings(st, "Utrecht", ""); err == nil {
		t.Fatalf("expected error for non-matching filter")
	}
}

func TestBuildResultEnvelope(t *testing.T) {
	r := buildResult("stats", model.KindStats, []model.SegmentStats{}, 0)
	if r.Kind != model.KindStats {
		t.Fatalf("expected kind %q, got %q", model.KindStats, r.Kind)
	}
	if r.Command != "stats" {
		t.Fatalf("expected command recorded, got %q", r.Command)
	}
	if r.GeneratedAt.IsZero() {
		t.Fatalf("expected GeneratedAt to be set")
	}
}
