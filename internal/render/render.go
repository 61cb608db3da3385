// Package render converts Result values into human-readable or machine-parseable
// output. Each format is a separate function; the top-level Render dispatcher
// selects based on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/util"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
)

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// obsRow is a canonical JSONL record for time series observations.
type obsRow struct {
	Date  string      `json:"date"`
	Value interface{} `json:"value"` // float64 or null
}

func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch result.Kind {
	case model.KindSeriesData:
		obs, ok := result.Data.([]model.Observation)
		if !ok {
			return enc.Encode(result.Data)
		}
		for _, o := range obs {
			row := obsRow{Date: util.FormatDate(o.Date)}
			if !o.IsMissing() {
				row.Value = o.Value
			}
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
		return nil
	case model.KindListings:
		listings, ok := result.Data.([]model.Listing)
		if !ok {
			return enc.Encode(result.Data)
		}
		for _, l := range listings {
			if err := enc.Encode(l); err != nil {
				return err
			}
		}
		return nil
	case model.KindPredictions:
		preds, ok := result.Data.([]model.PredictionRow)
		if !ok {
			return enc.Encode(result.Data)
		}
		for _, p := range preds {
			if err := enc.Encode(p); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindListings:
		listings, ok := result.Data.([]model.Listing)
		if !ok {
			return fmt.Errorf("unexpected data type for listings")
		}
		return renderListingsTable(w, listings)
	case model.KindSeriesData:
		obs, ok := result.Data.([]model.Observation)
		if !ok {
			return fmt.Errorf("unexpected data type for series_data")
		}
		return renderObsTable(w, obs)
	case model.KindPredictions:
		preds, ok := result.Data.([]model.PredictionRow)
		if !ok {
			return fmt.Errorf("unexpected data type for predictions")
		}
		return renderPredictionsTable(w, preds)
	case model.KindScored:
		scored, ok := result.Data.([]model.ScoredPrediction)
		if !ok {
			return fmt.Errorf("unexpected data type for scored_predictions")
		}
		return renderScoredTable(w, scored)
	case model.KindMultiplier:
		months, ok := result.Data.([]model.MonthMultiplier)
		if !ok {
			return fmt.Errorf("unexpected data type for multiplier")
		}
		return renderMultiplierTable(w, months)
	case model.KindStats:
		stats, ok := result.Data.([]model.SegmentStats)
		if !ok {
			return fmt.Errorf("unexpected data type for stats")
		}
		return renderStatsTable(w, stats)
	default:
		// Fallback: JSON
		return renderJSON(w, result)
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderListingsTable(w io.Writer, listings []model.Listing) error {
	tw := newTable(w, []string{"DATE", "CITY", "TYPE", "STREET", "NR", "REACT", "PRIO", "REG DAYS"})
	for _, l := range listings {
		prio := ""
		if l.Priority {
			prio = "*"
		}
		tw.Append([]string{
			util.FormatDate(l.ContractDate),
			l.City,
			l.TypeOfRoom,
			l.Street,
			l.StreetNumber,
			strconv.Itoa(l.NumReactions),
			prio,
			strconv.Itoa(l.RegistrationTime),
		})
	}
	tw.Render()
	return nil
}

func renderObsTable(w io.Writer, obs []model.Observation) error {
	tw := newTable(w, []string{"DATE", "VALUE"})
	tw.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
	})
	for _, o := range obs {
		tw.Append([]string{
			util.FormatDate(o.Date),
			util.FormatValue(o.Value),
		})
	}
	tw.Render()
	return nil
}

func renderPredictionsTable(w io.Writer, preds []model.PredictionRow) error {
	tw := newTable(w, []string{"DATE", "SEGMENT", "MEAN", "LO", "HI"})
	for _, p := range preds {
		tw.Append([]string{
			util.FormatDate(p.Date),
			segmentLabel(p.City, p.TypeOfRoom),
			util.FormatValue(p.Mean),
			util.FormatValue(p.Lo),
			util.FormatValue(p.Hi),
		})
	}
	tw.Render()
	return nil
}

func renderScoredTable(w io.Writer, scored []model.ScoredPrediction) error {
	tw := newTable(w, []string{"DATE", "SEGMENT", "MEAN", "LO", "HI", "TARGET", "PROB %", "CI %"})
	for _, s := range scored {
		tw.Append([]string{
			util.FormatDate(s.Date),
			segmentLabel(s.City, s.TypeOfRoom),
			util.FormatValue(s.Mean),
			util.FormatValue(s.Lo),
			util.FormatValue(s.Hi),
			util.FormatValue(s.Target),
			fmt.Sprintf("%.1f", s.Probability),
			fmt.Sprintf("%.1f", s.CIPct),
		})
	}
	tw.Render()
	return nil
}

func renderMultiplierTable(w io.Writer, months []model.MonthMultiplier) error {
	tw := newTable(w, []string{"MONTH", "MULTIPLIER"})
	for _, m := range months {
		tw.Append([]string{
			m.Month.String(),
			fmt.Sprintf("%.4f", m.Multiplier),
		})
	}
	tw.Render()
	return nil
}

func renderStatsTable(w io.Writer, stats []model.SegmentStats) error {
	tw := newTable(w, []string{"CITY", "TYPE", "COUNT", "MEDIAN", "MEAN", "MIN", "MAX", "MED REACT", "PRIO %"})
	for _, s := range stats {
		tw.Append([]string{
			s.City,
			s.TypeOfRoom,
			strconv.Itoa(s.Count),
			util.FormatValue(s.MedianRegDays),
			fmt.Sprintf("%.1f", s.MeanRegDays),
			util.FormatValue(s.MinRegDays),
			util.FormatValue(s.MaxRegDays),
			util.FormatValue(s.MedianReactions),
			fmt.Sprintf("%.1f", s.PctPriority),
		})
	}
	tw.Render()
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	switch result.Kind {
	case model.KindListings:
		listings, ok := result.Data.([]model.Listing)
		if !ok {
			return fmt.Errorf("unexpected data type for listings")
		}
		_ = cw.Write([]string{"contract_date", "city", "type_of_room", "street", "street_number", "num_reactions", "priority", "registration_time"})
		for _, l := range listings {
			_ = cw.Write([]string{
				util.FormatDate(l.ContractDate),
				l.City, l.TypeOfRoom, l.Street, l.StreetNumber,
				strconv.Itoa(l.NumReactions),
				strconv.FormatBool(l.Priority),
				strconv.Itoa(l.RegistrationTime),
			})
		}
	case model.KindSeriesData:
		obs, ok := result.Data.([]model.Observation)
		if !ok {
			return fmt.Errorf("unexpected data type for series_data")
		}
		_ = cw.Write([]string{"date", "value"})
		for _, o := range obs {
			_ = cw.Write([]string{util.FormatDate(o.Date), util.FormatValue(o.Value)})
		}
	case model.KindPredictions:
		preds, ok := result.Data.([]model.PredictionRow)
		if !ok {
			return fmt.Errorf("unexpected data type for predictions")
		}
		_ = cw.Write([]string{"date", "city", "type_of_room", "pred_mean", "pred_lo", "pred_hi"})
		for _, p := range preds {
			_ = cw.Write([]string{
				util.FormatDate(p.Date), p.City, p.TypeOfRoom,
				util.FormatValue(p.Mean), util.FormatValue(p.Lo), util.FormatValue(p.Hi),
			})
		}
	case model.KindStats:
		stats, ok := result.Data.([]model.SegmentStats)
		if !ok {
			return fmt.Errorf("unexpected data type for stats")
		}
		_ = cw.Write([]string{"city", "type_of_room", "count", "median_reg_days", "mean_reg_days", "min_reg_days", "max_reg_days", "median_reactions", "pct_priority"})
		for _, s := range stats {
			_ = cw.Write([]string{
				s.City, s.TypeOfRoom, strconv.Itoa(s.Count),
				util.FormatValue(s.MedianRegDays),
				fmt.Sprintf("%.1f", s.MeanRegDays),
				util.FormatValue(s.MinRegDays),
				util.FormatValue(s.MaxRegDays),
				util.FormatValue(s.MedianReactions),
				fmt.Sprintf("%.1f", s.PctPriority),
			})
		}
	default:
		// Fallback: serialize as JSON on a single line
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindSeriesData:
		obs, ok := result.Data.([]model.Observation)
		if !ok {
			return renderJSON(w, result)
		}
		fmt.Fprintf(w, "| DATE | VALUE |\n|------|-------|\n")
		for _, o := range obs {
			fmt.Fprintf(w, "| %s | %s |\n", util.FormatDate(o.Date), util.FormatValue(o.Value))
		}
		return nil
	case model.KindPredictions:
		preds, ok := result.Data.([]model.PredictionRow)
		if !ok {
			return renderJSON(w, result)
		}
		fmt.Fprintf(w, "| DATE | SEGMENT | MEAN | LO | HI |\n|----|----|----|----|----|\n")
		for _, p := range preds {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				util.FormatDate(p.Date), mdEscape(segmentLabel(p.City, p.TypeOfRoom)),
				util.FormatValue(p.Mean), util.FormatValue(p.Lo), util.FormatValue(p.Hi))
		}
		return nil
	case model.KindStats:
		stats, ok := result.Data.([]model.SegmentStats)
		if !ok {
			return renderJSON(w, result)
		}
		fmt.Fprintf(w, "| CITY | TYPE | COUNT | MEDIAN | MEAN | PRIO %% |\n|----|----|----|----|----|----|\n")
		for _, s := range stats {
			fmt.Fprintf(w, "| %s | %s | %d | %s | %.1f | %.1f |\n",
				mdEscape(s.City), mdEscape(s.TypeOfRoom), s.Count,
				util.FormatValue(s.MedianRegDays), s.MeanRegDays, s.PctPriority)
		}
		return nil
	default:
		return renderJSON(w, result)
	}
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		fmt.Fprintf(w, "\n[%s • %d items • %dms]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// segmentLabel renders a (city, room type) pair; empty fields widen the
// segment, so a fully-empty pair is the global model.
func segmentLabel(city, typeOfRoom string) string {
	switch {
	case city == "" && typeOfRoom == "":
		return "global"
	case typeOfRoom == "":
		return city
	default:
		return city + "/" + typeOfRoom
	}
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
