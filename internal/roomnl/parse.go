package roomnl

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

// Language selects which header names and allocation phrasing to expect.
// The site serves the same table under /en and /nl with translated headers.
type Language string

const (
	LangEnglish Language = "english"
	LangDutch   Language = "dutch"
)

// contractDateLayout matches the site's DD-MM-YYYY contract dates.
const contractDateLayout = "02-01-2006"

// addressPattern splits "Kanaalstraat 12 B" into street and number parts.
// The street is everything before the first digit token.
var addressPattern = regexp.MustCompile(`^(?P<street>[^\d]*\S)\s+(?P<number>\d(?:.+)*)\s*$`)

// Registration time appears inside the allocation column as
// "Registration time: X years, Y months, Z days"; every component is
// optional.
var (
	regTimeEN = regexp.MustCompile(`(?i)Registration time:\s*(?:([0-9]+)\s*years?)?(?:,\s*)?(?:([0-9]+)\s*months?)?(?:,\s*)?(?:([0-9]+)\s*days?)?`)
	regTimeNL = regexp.MustCompile(`(?i)Inschrijfduur:\s*(?:([0-9]+)\s*jaar)?(?:,\s*)?(?:([0-9]+)\s*maanden?)?(?:,\s*)?(?:([0-9]+)\s*dagen?)?`)
)

// Canonical column names used internally.
const (
	colAddress      = "current_address"
	colCity         = "city"
	colTypeOfRoom   = "type_of_room"
	colNumReactions = "num_reactions"
	colContractDate = "contract_date"
	colAllocation   = "allocation_type"
)

var headersEN = map[string]string{
	"Current address":     colAddress,
	"City":                colCity,
	"Type of room":        colTypeOfRoom,
	"Number of reactions": colNumReactions,
	"Contract date":       colContractDate,
	"Allocation based on (* is with priority)": colAllocation,
}

var headersNL = map[string]string{
	"Adres":                                 colAddress,
	"Plaats":                                colCity,
	"Kamertype":                             colTypeOfRoom,
	"Aantal reacties":                       colNumReactions,
	"Contractdatum":                         colContractDate,
	"Toewijzing o.b.v. (* is met voorrang)": colAllocation,
}

// ParseListings extracts listings from the first table in the HTML document.
// Rows without a parseable registration time or allocation prefix are
// dropped, matching the site's non-listing filler rows; each drop is
// reported as a warning.
func ParseListings(r io.Reader, lang Language) ([]model.Listing, []string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing html: %w", err)
	}

	table := findFirst(doc, "table")
	if table == nil {
		return nil, nil, fmt.Errorf("no table found in page")
	}

	rows := tableRows(table)
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("table has no data rows")
	}

	headerMap := headersEN
	allocPrefix := "Registration time:"
	regTime := regTimeEN
	if lang == LangDutch {
		headerMap = headersNL
		allocPrefix = "Inschrijfduur:"
		regTime = regTimeNL
	}

	cols, err := mapHeaders(rows[0], headerMap)
	if err != nil {
		return nil, nil, err
	}

	var listings []model.Listing
	var warnings []string
	for i, row := range rows[1:] {
		l, err := parseRow(row, cols, allocPrefix, regTime)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		listings = append(listings, l)
	}
	return listings, warnings, nil
}

// mapHeaders resolves header cell text to column indices. The contract date
// header carries a sort arrow suffix, so it is matched by prefix.
func mapHeaders(header []string, headerMap map[string]string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(h)
		if canonical, ok := headerMap[h]; ok {
			cols[canonical] = i
			continue
		}
		for name, canonical := range headerMap {
			if canonical == colContractDate && strings.HasPrefix(h, name) {
				cols[canonical] = i
			}
		}
	}
	for _, want := range []string{colAddress, colCity, colTypeOfRoom, colNumReactions, colContractDate, colAllocation} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q in table header", want)
		}
	}
	return cols, nil
}

// parseRow converts one table row into a Listing.
func parseRow(cells []string, cols map[string]int, allocPrefix string, regTime *regexp.Regexp) (model.Listing, error) {
	var l model.Listing
	cell := func(name string) string {
		i := cols[name]
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	alloc := cell(colAllocation)
	if !strings.HasPrefix(alloc, allocPrefix) {
		return l, fmt.Errorf("allocation %q is not registration-time based", alloc)
	}
	m := regTime.FindStringSubmatch(alloc)
	if m == nil {
		return l, fmt.Errorf("unparseable registration time %q", alloc)
	}
	days := 0
	for gi, scale := range []int{365, 30, 1} {
		if m[gi+1] != "" {
			n, err := strconv.Atoi(m[gi+1])
			if err != nil {
				return l, fmt.Errorf("registration time %q: %w", alloc, err)
			}
			days += n * scale
		}
	}
	l.RegistrationTime = days
	l.Priority = strings.HasSuffix(alloc, "*")

	addr := cell(colAddress)
	am := addressPattern.FindStringSubmatch(addr)
	if am == nil {
		return l, fmt.Errorf("unparseable address %q", addr)
	}
	l.Street = strings.TrimSpace(am[1])
	l.StreetNumber = strings.TrimSpace(am[2])

	l.City = cell(colCity)
	if l.City == "" {
		return l, fmt.Errorf("empty city")
	}
	l.TypeOfRoom = cell(colTypeOfRoom)

	n, err := strconv.Atoi(cell(colNumReactions))
	if err != nil {
		return l, fmt.Errorf("reactions %q: %w", cell(colNumReactions), err)
	}
	l.NumReactions = n

	date, err := time.Parse(contractDateLayout, cell(colContractDate))
	if err != nil {
		return l, fmt.Errorf("contract date %q: %w", cell(colContractDate), err)
	}
	l.ContractDate = date.UTC()

	return l, nil
}

// ─── HTML walking ─────────────────────────────────────────────────────────────

// findFirst returns the first element with the given tag in document order.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// tableRows flattens a table into rows of cell text. Header cells (th) and
// data cells (td) are treated alike; the caller decides which row is the
// header.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, nodeText(c))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

// nodeText collects and whitespace-normalizes all text under a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
