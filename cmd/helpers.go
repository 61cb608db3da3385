package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/KaiErikNiermann/roomnl-stats/internal/app"
	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/render"
	"github.com/KaiErikNiermann/roomnl-stats/internal/seasonal"
	"github.com/KaiErikNiermann/roomnl-stats/internal/stats"
	"github.com/KaiErikNiermann/roomnl-stats/internal/store"
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// loadListings reads all accumulated listings from the local store,
// optionally filtered by city and room type.
func loadListings(st *store.Store, city, typeOfRoom string) ([]model.Listing, error) {
	listings, err := st.ListListings()
	if err != nil {
		return nil, fmt.Errorf("reading listings: %w", err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("no listings in store — run `roomnl-stats fetch --store` first")
	}
	if city == "" && typeOfRoom == "" {
		return listings, nil
	}
	var out []model.Listing
	for _, l := range listings {
		if city != "" && l.City != city {
			continue
		}
		if typeOfRoom != "" && l.TypeOfRoom != typeOfRoom {
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no listings match city=%q type=%q", city, typeOfRoom)
	}
	return out, nil
}

// loadProfile resolves a seasonal profile by name. An empty name means no
// deseasonalization; "auto" builds a profile from the listings themselves.
func loadProfile(deps *app.Deps, name string, listings []model.Listing) ([]model.MonthMultiplier, error) {
	switch name {
	case "":
		return nil, nil
	case "auto":
		return seasonal.BuildMultiplier(stats.MonthlyMeans(listings), seasonal.DefaultOptions())
	default:
		st, err := deps.RequireStore()
		if err != nil {
			return nil, err
		}
		months, ok, err := st.GetTrend(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no saved profile named %q", name)
		}
		return months, nil
	}
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

// buildResult wraps a payload in a Result envelope.
func buildResult(command, kind string, data interface{}, items int) *model.Result {
	return &model.Result{
		Kind:        kind,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        data,
		Stats:       model.ResultStats{Items: items},
	}
}
