// Package chart provides ASCII terminal chart rendering for the forecasting
// output. Three renderers are available:
//
//   - Bar: horizontal bar chart over labeled values — best for the monthly
//     multiplier profile and per-segment summaries
//   - Plot: multi-line ASCII chart with labeled axes — best for the weekly
//     registration-time series
//   - Band: a Plot of the prediction mean with the confidence interval
//     shaded behind it
//
// All renderers handle NaN values gracefully (as gaps, not zeros) and require
// no external dependencies beyond the Go standard library.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

// ─── Bar ─────────────────────────────────────────────────────────────────────

// BarOptions controls horizontal bar chart rendering.
type BarOptions struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
}

// Bar renders a horizontal bar chart of labeled values to w, one bar per
// entry. Labels and values must be the same length.
//
// Output example:
//
//	seasonal profile
//	January    1.12  ████████████████████
//	February   0.94  ████████████████
func Bar(w io.Writer, title string, labels []string, values []float64, opts BarOptions) error {
	if len(labels) != len(values) {
		return fmt.Errorf("chart bar: %d labels for %d values", len(labels), len(values))
	}

	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}

	var valid []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < 1 {
		return fmt.Errorf("chart bar: no non-NaN values to render")
	}

	// Min / max (handle negative values — bar from zero baseline)
	minVal, maxVal := valid[0], valid[0]
	for _, v := range valid[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	labelWidth := 0
	for _, l := range labels {
		if len(l) > labelWidth {
			labelWidth = len(l)
		}
	}
	valWidth := 0
	for _, v := range values {
		if l := len(formatFloat(v)); l > valWidth {
			valWidth = l
		}
	}

	// Bar area width = totalWidth - labelWidth - valWidth - separators (4 chars)
	barAreaWidth := totalWidth - labelWidth - valWidth - 4
	if barAreaWidth < 4 {
		barAreaWidth = 4
	}

	valRange := maxVal - minVal
	if valRange == 0 {
		valRange = 1 // avoid divide-by-zero for flat series
	}

	// Determine if we have negative values — affects baseline
	hasNeg := minVal < 0
	var zeroPos int // column index of the zero line within bar area
	if hasNeg {
		zeroPos = int(math.Round((-minVal / valRange) * float64(barAreaWidth-1)))
	}

	if title != "" {
		fmt.Fprintf(w, "%s\n", title)
	}

	for i, v := range values {
		valLabel := formatFloat(v)

		var bar string
		switch {
		case math.IsNaN(v):
			bar = ""
		case hasNeg:
			bar = buildBiBar(v, minVal, maxVal, barAreaWidth, zeroPos)
		default:
			barLen := int(math.Round((v - minVal) / valRange * float64(barAreaWidth)))
			if barLen < 1 {
				barLen = 1 // minimum 1 block so every bar is visible
			}
			if barLen > barAreaWidth {
				barLen = barAreaWidth
			}
			bar = strings.Repeat("█", barLen)
		}

		fmt.Fprintf(w, "%-*s  %*s  %s\n",
			labelWidth, labels[i],
			valWidth, valLabel,
			bar,
		)
	}

	return nil
}

// buildBiBar renders a bar that may extend left (negative) or right (positive)
// from a zero baseline at zeroPos within a field of width barAreaWidth.
func buildBiBar(val, minVal, maxVal float64, barAreaWidth, zeroPos int) string {
	valRange := maxVal - minVal
	buf := []rune(strings.Repeat(" ", barAreaWidth))

	// Mark zero line
	if zeroPos >= 0 && zeroPos < barAreaWidth {
		buf[zeroPos] = '│'
	}

	if val >= 0 {
		// Fill right from zeroPos
		end := zeroPos + int(math.Round(val/valRange*float64(barAreaWidth-1)))
		if end > barAreaWidth {
			end = barAreaWidth
		}
		for i := zeroPos + 1; i <= end && i < barAreaWidth; i++ {
			buf[i] = '█'
		}
	} else {
		// Fill left from zeroPos
		start := zeroPos - int(math.Round((-val)/valRange*float64(barAreaWidth-1)))
		if start < 0 {
			start = 0
		}
		for i := start; i < zeroPos && i < barAreaWidth; i++ {
			buf[i] = '█'
		}
	}

	return string(buf)
}

// ─── Plot ─────────────────────────────────────────────────────────────────────

// PlotOptions controls multi-line ASCII plot rendering.
type PlotOptions struct {
	// Width is the total character width of the chart (including Y-axis label).
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Height is the number of data rows in the chart body (not counting axis labels).
	// If 0, defaults to 12.
	Height int
	// Title is printed above the chart.
	Title string
}

// Plot renders a multi-line ASCII chart of obs to w.
func Plot(w io.Writer, obs []model.Observation, opts PlotOptions) error {
	vals := make([]float64, len(obs))
	dates := make([]time.Time, len(obs))
	for i, o := range obs {
		vals[i] = o.Value
		dates[i] = o.Date
	}
	return plotSeries(w, dates, vals, nil, nil, opts)
}

// Band renders the prediction mean as a line with the confidence interval
// shaded behind it.
func Band(w io.Writer, preds []model.PredictionRow, opts PlotOptions) error {
	means := make([]float64, len(preds))
	los := make([]float64, len(preds))
	his := make([]float64, len(preds))
	dates := make([]time.Time, len(preds))
	for i, p := range preds {
		means[i] = p.Mean
		los[i] = p.Lo
		his[i] = p.Hi
		dates[i] = p.Date
	}
	return plotSeries(w, dates, means, los, his, opts)
}

// plotSeries is the shared renderer. lo and hi are optional; when present
// they must be the same length as vals and are drawn as a shaded band.
func plotSeries(w io.Writer, dates []time.Time, vals, lo, hi []float64, opts PlotOptions) error {
	width := opts.Width
	if width <= 0 {
		width = termWidth()
	}
	height := opts.Height
	if height <= 0 {
		height = 12
	}

	// Collect valid values for scaling — the band participates so it never
	// clips off the top of the chart.
	var validVals []float64
	for _, series := range [][]float64{vals, lo, hi} {
		for _, v := range series {
			if !math.IsNaN(v) {
				validVals = append(validVals, v)
			}
		}
	}
	if len(validVals) < 2 {
		return fmt.Errorf("chart plot: need at least 2 non-NaN values (got %d)", len(validVals))
	}

	minVal, maxVal := validVals[0], validVals[0]
	for _, v := range validVals[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	// Y-axis label width: measure the widest tick label
	ticks := yTicks(minVal, maxVal, height)
	yLabelWidth := 0
	for _, t := range ticks {
		if l := len(formatFloat(t)); l > yLabelWidth {
			yLabelWidth = l
		}
	}

	// Plot body width (number of data columns)
	plotWidth := width - yLabelWidth - 2
	if plotWidth < 10 {
		plotWidth = 10
	}

	// Sample each series into plotWidth columns
	cols := sampleCols(vals, plotWidth)
	grid := buildGrid(cols, minVal, maxVal, height)
	if lo != nil && hi != nil {
		shadeBand(grid, sampleCols(lo, plotWidth), sampleCols(hi, plotWidth), minVal, maxVal, height)
	}

	// Print title + date range header
	if opts.Title != "" {
		dateFirst := dates[0].Format("2006-01")
		dateLast := dates[len(dates)-1].Format("2006-01")
		fmt.Fprintf(w, "%s  (%s to %s)\n", opts.Title, dateFirst, dateLast)
	}

	// Print rows top to bottom
	for row := 0; row < height; row++ {
		// Y-axis label: print on rows that have a tick
		label := ""
		for _, t := range ticks {
			if math.Abs(rowForValue(t, minVal, maxVal, height)-float64(row)) < 0.5 {
				label = formatFloat(t)
				break
			}
		}
		labelPadded := fmt.Sprintf("%*s", yLabelWidth, label)

		axisCh := "┤"
		if label == "" {
			axisCh = " "
		}

		var rowSB strings.Builder
		for col := 0; col < plotWidth; col++ {
			rowSB.WriteRune(grid[row][col])
		}

		fmt.Fprintf(w, "%s%s%s\n", labelPadded, axisCh, rowSB.String())
	}

	// Bottom axis line
	bottomLine := strings.Repeat("─", plotWidth)
	fmt.Fprintf(w, "%s└%s\n", strings.Repeat(" ", yLabelWidth), bottomLine)

	// X-axis date labels: start, middle, end
	xLabels := xAxisLabels(dates, plotWidth)
	fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", yLabelWidth), xLabels)

	return nil
}

// ─── Grid building ────────────────────────────────────────────────────────────

// sampleCols reduces vals to exactly n columns by sampling.
// Each column holds the average of its bucket, or NaN if all are NaN.
func sampleCols(vals []float64, n int) []float64 {
	total := len(vals)
	cols := make([]float64, n)
	for col := 0; col < n; col++ {
		lo := col * total / n
		hi := (col+1)*total/n - 1
		if hi >= total {
			hi = total - 1
		}
		sum, count := 0.0, 0
		for i := lo; i <= hi; i++ {
			if !math.IsNaN(vals[i]) {
				sum += vals[i]
				count++
			}
		}
		if count == 0 {
			cols[col] = math.NaN()
		} else {
			cols[col] = sum / float64(count)
		}
	}
	return cols
}

// rowForValue returns the float row index (0=top=max) for a given value.
func rowForValue(v, minVal, maxVal float64, height int) float64 {
	if maxVal == minVal {
		return float64(height) / 2
	}
	return (maxVal - v) / (maxVal - minVal) * float64(height-1)
}

// clampRow converts a value to a clamped integer row index.
func clampRow(v, minVal, maxVal float64, height int) int {
	r := int(math.Round(rowForValue(v, minVal, maxVal, height)))
	if r < 0 {
		r = 0
	}
	if r >= height {
		r = height - 1
	}
	return r
}

// shadeBand fills the cells between the lo and hi columns with a light shade,
// leaving already-drawn line characters intact.
func shadeBand(grid [][]rune, loCols, hiCols []float64, minVal, maxVal float64, height int) {
	for col := 0; col < len(loCols) && col < len(hiCols); col++ {
		if math.IsNaN(loCols[col]) || math.IsNaN(hiCols[col]) {
			continue
		}
		top := clampRow(hiCols[col], minVal, maxVal, height)
		bottom := clampRow(loCols[col], minVal, maxVal, height)
		for row := top; row <= bottom; row++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '░'
			}
		}
	}
}

// buildGrid renders columns into a height×width rune grid using
// box-drawing characters to connect adjacent data points.
func buildGrid(cols []float64, minVal, maxVal float64, height int) [][]rune {
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = make([]rune, len(cols))
		for c := range grid[r] {
			grid[r][c] = ' '
		}
	}

	// For each column, find the row index of its value
	rowOf := make([]int, len(cols))
	for col, v := range cols {
		if math.IsNaN(v) {
			rowOf[col] = -1 // sentinel: gap
		} else {
			rowOf[col] = clampRow(v, minVal, maxVal, height)
		}
	}

	// Draw each column
	for col := 0; col < len(cols); col++ {
		r := rowOf[col]
		if r < 0 {
			continue // NaN gap
		}

		// Determine connecting characters based on neighbours
		prevRow := -2
		if col > 0 {
			prevRow = rowOf[col-1]
		}
		nextRow := -2
		if col < len(cols)-1 {
			nextRow = rowOf[col+1]
		}

		if prevRow == -2 && nextRow == -2 {
			// Isolated point
			grid[r][col] = '·'
			continue
		}

		// Horizontal run
		if (prevRow < 0 || prevRow == r) && (nextRow < 0 || nextRow == r) {
			grid[r][col] = '─'
			continue
		}

		// Transitions
		goingUp := (nextRow >= 0 && nextRow < r) || (prevRow >= 0 && prevRow < r)
		goingDown := (nextRow >= 0 && nextRow > r) || (prevRow >= 0 && prevRow > r)

		switch {
		case prevRow >= 0 && prevRow < r && nextRow >= 0 && nextRow < r:
			// Both neighbours above: flat bottom of a valley
			grid[r][col] = '─'
		case prevRow >= 0 && prevRow > r && nextRow >= 0 && nextRow > r:
			// Both neighbours below: peak
			grid[r][col] = '─'
		case (prevRow < 0 || prevRow < r) && nextRow >= 0 && nextRow > r:
			grid[r][col] = '╭'
		case (prevRow < 0 || prevRow > r) && nextRow >= 0 && nextRow < r:
			grid[r][col] = '╰'
		case prevRow >= 0 && prevRow < r && (nextRow < 0 || nextRow > r):
			grid[r][col] = '╮'
		case prevRow >= 0 && prevRow > r && (nextRow < 0 || nextRow < r):
			grid[r][col] = '╯'
		default:
			if goingUp || goingDown {
				grid[r][col] = '│'
			} else {
				grid[r][col] = '─'
			}
		}

		// Fill vertical connectors between this row and previous column's row
		if prevRow >= 0 && prevRow != r {
			lo, hi := r, prevRow
			if lo > hi {
				lo, hi = hi, lo
			}
			for fill := lo + 1; fill < hi; fill++ {
				if grid[fill][col] == ' ' {
					grid[fill][col] = '│'
				}
			}
		}
	}

	return grid
}

// ─── Axis helpers ─────────────────────────────────────────────────────────────

// yTicks returns 3–5 evenly-spaced tick values for the Y axis.
func yTicks(minVal, maxVal float64, height int) []float64 {
	if maxVal == minVal {
		return []float64{minVal}
	}
	nTicks := 4
	if height <= 6 {
		nTicks = 3
	}
	ticks := make([]float64, nTicks)
	for i := 0; i < nTicks; i++ {
		ticks[i] = minVal + float64(i)*(maxVal-minVal)/float64(nTicks-1)
	}
	return ticks
}

// xAxisLabels builds a padded string with start, middle, and end date labels.
func xAxisLabels(dates []time.Time, plotWidth int) string {
	if len(dates) == 0 {
		return ""
	}
	startLabel := dates[0].Format("2006-01")
	endLabel := dates[len(dates)-1].Format("2006-01")
	midLabel := dates[len(dates)/2].Format("2006-01")

	// Position: start at left, mid centred, end at right
	midPos := plotWidth/2 - len(midLabel)/2
	endPos := plotWidth - len(endLabel)

	buf := []rune(strings.Repeat(" ", plotWidth))

	writeAt := func(pos int, s string) {
		for i, ch := range s {
			if pos+i >= 0 && pos+i < len(buf) {
				buf[pos+i] = ch
			}
		}
	}

	writeAt(0, startLabel)
	writeAt(midPos, midLabel)
	writeAt(endPos, endLabel)

	return string(buf)
}

// ─── Utilities ────────────────────────────────────────────────────────────────

// formatFloat formats a float for axis labels: no unnecessary trailing zeros,
// at least one decimal place, compact notation for large/small numbers.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	abs := math.Abs(v)
	var s string
	switch {
	case abs == 0:
		return "0"
	case abs >= 1e6:
		s = strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		s = strconv.FormatFloat(v/1e3, 'f', 1, 64) + "K"
	case abs >= 100:
		s = strconv.FormatFloat(v, 'f', 1, 64)
	case abs >= 10:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	case abs >= 1:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	default:
		s = strconv.FormatFloat(v, 'f', 4, 64)
	}
	// Trim trailing zeros after decimal point, keep at least one decimal
	if strings.Contains(s, ".") && !strings.Contains(s, "M") && !strings.Contains(s, "K") {
		s = strings.TrimRight(s, "0")
		if strings.HasSuffix(s, ".") {
			s += "0"
		}
	}
	return s
}

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
