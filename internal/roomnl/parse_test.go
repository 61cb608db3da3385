package roomnl_test

import (
	"strings"
	"testing"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/roomnl"
)

// ─── Page builders ────────────────────────────────────────────────────────────

func page(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("<html><body><table><tr>")
	for _, h := range headers {
		b.WriteString("<th>" + h + "</th>")
	}
	b.WriteString("</tr>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

func englishHeaders() []string {
	return []string{
		"Current address",
		"City",
		"Type of room",
		"Number of reactions",
		"Contract date &#8593;", // sort arrow as served
		"Allocation based on (* is with priority)",
	}
}

func dutchHeaders() []string {
	return []string{
		"Adres",
		"Plaats",
		"Kamertype",
		"Aantal reacties",
		"Contractdatum &#8593;",
		"Toewijzing o.b.v. (* is met voorrang)",
	}
}

// ─── English ──────────────────────────────────────────────────────────────────

func TestParseListingsEnglish(t *testing.T) {
	doc := page(englishHeaders(), [][]string{
		{"Kanaalstraat 12", "Amsterdam", "Room", "64", "14-03-2025",
			"Registration time: 2 years, 3 months, 5 days"},
	})

	listings, warnings, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}

	l := listings[0]
	if l.Street != "Kanaalstraat" || l.StreetNumber != "12" {
		t.Errorf("address: got street=%q number=%q", l.Street, l.StreetNumber)
	}
	if l.City != "Amsterdam" || l.TypeOfRoom != "Room" {
		t.Errorf("segment: got city=%q room=%q", l.City, l.TypeOfRoom)
	}
	if l.NumReactions != 64 {
		t.Errorf("reactions: expected 64, got %d", l.NumReactions)
	}
	if want := 2*365 + 3*30 + 5; l.RegistrationTime != want {
		t.Errorf("registration time: expected %d days, got %d", want, l.RegistrationTime)
	}
	if l.Priority {
		t.Error("priority: expected false without trailing asterisk")
	}
	if want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC); !l.ContractDate.Equal(want) {
		t.Errorf("contract date: expected %s, got %s",
			want.Format("2006-01-02"), l.ContractDate.Format("2006-01-02"))
	}
}

func TestParseListingsPriorityAsterisk(t *testing.T) {
	doc := page(englishHeaders(), [][]string{
		{"Hooigracht 3 A", "Leiden", "Studio", "120", "01-09-2024",
			"Registration time: 4 years *"},
	})

	listings, _, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	l := listings[0]
	if !l.Priority {
		t.Error("priority: expected true for trailing asterisk")
	}
	if l.RegistrationTime != 4*365 {
		t.Errorf("registration time: expected %d, got %d", 4*365, l.RegistrationTime)
	}
	if l.Street != "Hooigracht" || l.StreetNumber != "3 A" {
		t.Errorf("address: got street=%q number=%q", l.Street, l.StreetNumber)
	}
}

func TestParseListingsPartialDuration(t *testing.T) {
	tests := []struct {
		alloc string
		want  int
	}{
		{"Registration time: 10 days", 10},
		{"Registration time: 6 months", 180},
		{"Registration time: 1 year", 365},
		{"Registration time: 1 year, 15 days", 380},
	}
	for _, tc := range tests {
		t.Run(tc.alloc, func(t *testing.T) {
			doc := page(englishHeaders(), [][]string{
				{"Dorpsweg 1", "Delft", "Room", "5", "02-01-2025", tc.alloc},
			})
			listings, _, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
			if err != nil {
				t.Fatalf("ParseListings: %v", err)
			}
			if len(listings) != 1 {
				t.Fatalf("expected 1 listing, got %d", len(listings))
			}
			if listings[0].RegistrationTime != tc.want {
				t.Errorf("registration time: expected %d, got %d", tc.want, listings[0].RegistrationTime)
			}
		})
	}
}

// ─── Dutch ────────────────────────────────────────────────────────────────────

func TestParseListingsDutch(t *testing.T) {
	doc := page(dutchHeaders(), [][]string{
		{"Oude Delft 42", "Delft", "Kamer", "33", "05-11-2024",
			"Inschrijfduur: 1 jaar, 2 maanden, 3 dagen *"},
	})

	listings, warnings, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangDutch)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	l := listings[0]
	if want := 365 + 2*30 + 3; l.RegistrationTime != want {
		t.Errorf("registration time: expected %d, got %d", want, l.RegistrationTime)
	}
	if !l.Priority {
		t.Error("priority: expected true")
	}
	if l.Street != "Oude Delft" || l.StreetNumber != "42" {
		t.Errorf("address: got street=%q number=%q", l.Street, l.StreetNumber)
	}
}

func TestParseListingsDutchHeadersRejectEnglishPage(t *testing.T) {
	doc := page(englishHeaders(), [][]string{
		{"Dorpsweg 1", "Delft", "Room", "5", "02-01-2025", "Registration time: 10 days"},
	})
	if _, _, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangDutch); err == nil {
		t.Fatal("expected missing-column error when parsing an English page as Dutch")
	}
}

// ─── Filler rows and warnings ─────────────────────────────────────────────────

func TestParseListingsSkipsNonRegistrationRows(t *testing.T) {
	doc := page(englishHeaders(), [][]string{
		{"Dorpsweg 1", "Delft", "Room", "5", "02-01-2025", "Registration time: 10 days"},
		{"Marktplein 9", "Delft", "Room", "40", "03-01-2025", "Lottery"},
		{"Dorpsweg 2", "Delft", "Room", "7", "04-01-2025", "Registration time: 20 days"},
	})

	listings, warnings, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings after dropping the lottery row, got %d", len(listings))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "row 2") {
		t.Errorf("expected one warning for row 2, got %v", warnings)
	}
}

func TestParseListingsBadReactionsWarns(t *testing.T) {
	doc := page(englishHeaders(), [][]string{
		{"Dorpsweg 1", "Delft", "Room", "n/a", "02-01-2025", "Registration time: 10 days"},
	})

	listings, warnings, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("expected bad row dropped, got %d listings", len(listings))
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
}

func TestParseListingsEmptyCityWarns(t *testing.T) {
	doc := page(englishHeaders(), [][]string{
		{"Dorpsweg 1", "", "Room", "5", "02-01-2025", "Registration time: 10 days"},
		{"Dorpsweg 2", "Delft", "Room", "7", "03-01-2025", "Registration time: 20 days"},
	})

	listings, warnings, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 1 || listings[0].City != "Delft" {
		t.Fatalf("row without a city should be dropped, got %d listings", len(listings))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "empty city") {
		t.Errorf("expected an empty-city warning, got %v", warnings)
	}
}

func TestParseListingsBadDateWarns(t *testing.T) {
	doc := page(englishHeaders(), [][]string{
		{"Dorpsweg 1", "Delft", "Room", "5", "2025-01-02", "Registration time: 10 days"},
	})

	listings, warnings, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 0 || len(warnings) != 1 {
		t.Errorf("ISO-formatted date should be rejected as a warning, got %d listings, %v",
			len(listings), warnings)
	}
}

// ─── Document-level errors ────────────────────────────────────────────────────

func TestParseListingsNoTable(t *testing.T) {
	doc := "<html><body><p>maintenance</p></body></html>"
	if _, _, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish); err == nil {
		t.Fatal("expected error for page without a table")
	}
}

func TestParseListingsHeaderOnly(t *testing.T) {
	doc := page(englishHeaders(), nil)
	if _, _, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish); err == nil {
		t.Fatal("expected error for table without data rows")
	}
}

func TestParseListingsMissingColumn(t *testing.T) {
	headers := englishHeaders()[:5] // drop the allocation column
	doc := page(headers, [][]string{
		{"Dorpsweg 1", "Delft", "Room", "5", "02-01-2025"},
	})
	_, _, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
	if err == nil || !strings.Contains(err.Error(), "missing column") {
		t.Fatalf("expected missing-column error, got %v", err)
	}
}

func TestParseListingsNestedMarkup(t *testing.T) {
	// Cell text is spread across nested elements, as the live site renders it.
	doc := `<html><body><table>
	<tr><th>Current address</th><th>City</th><th>Type of room</th>
	<th>Number of reactions</th><th><a href="#">Contract date <span>&#8593;</span></a></th>
	<th>Allocation based on (* is with priority)</th></tr>
	<tr><td><b>Dorpsweg</b> 1</td><td>Delft</td><td>Room</td>
	<td><span>5</span></td><td>02-01-2025</td>
	<td><em>Registration time:</em> 10 days</td></tr>
	</table></body></html>`

	listings, _, err := roomnl.ParseListings(strings.NewReader(doc), roomnl.LangEnglish)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].Street != "Dorpsweg" || listings[0].RegistrationTime != 10 {
		t.Errorf("nested markup: got street=%q regtime=%d",
			listings[0].Street, listings[0].RegistrationTime)
	}
}
