package ui

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"streamplot/internal/series"
)

// Chart lays out one dataset as a braille plot with y bounds on the
// left, the x range under the axis, and a legend line.
type Chart struct {
	Styles Styles
}

// Render draws the dataset into a width by height block. It degrades
// to a short message when there is nothing worth plotting.
func (c Chart) Render(set *series.SeriesSet, width, height int) string {
	if width < 12 || height < 4 {
		return c.Styles.Muted.Render("terminal too small")
	}
	if set == nil || len(set.Series) == 0 || set.Len() == 0 {
		return c.Styles.Muted.Render("no data yet")
	}
	// A long stream scrolls: points past the dot resolution of the
	// canvas fall off the left edge, and the bounds track what is
	// visible. Two dot columns per cell.
	set = set.Window(2 * width)
	lo, hi, ok := set.Bounds()
	if !ok {
		return c.Styles.Muted.Render("no numeric data")
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	legend := c.legend(set, width)
	legendLines := 0
	if legend != "" {
		legendLines = 1
	}

	topLabel := formatVal(hi)
	botLabel := formatVal(lo)
	gutter := len(topLabel)
	if len(botLabel) > gutter {
		gutter = len(botLabel)
	}

	plotW := width - gutter - 1
	plotH := height - 1 - legendLines
	if plotW < 4 || plotH < 2 {
		return c.Styles.Muted.Render("terminal too small")
	}

	cv := newCanvas(plotW, plotH)
	for si := range set.Series {
		c.plotSeries(cv, set.Series[si].Values, lo, hi, si)
	}

	var b strings.Builder
	rows := cv.rows(c.Styles)
	for y, row := range rows {
		label := strings.Repeat(" ", gutter)
		switch y {
		case 0:
			label = pad(topLabel, gutter)
		case len(rows) - 1:
			label = pad(botLabel, gutter)
		}
		b.WriteString(c.Styles.Axis.Render(label + "┤"))
		b.WriteString(row)
		b.WriteByte('\n')
	}
	b.WriteString(c.Styles.Axis.Render(strings.Repeat(" ", gutter)))
	b.WriteString(c.axisLine(set, plotW))
	if legend != "" {
		b.WriteByte('\n')
		b.WriteString(legend)
	}
	return b.String()
}

// plotSeries maps each value to a dot column and connects consecutive
// points. NaN and infinite values break the line, leaving a gap.
func (c Chart) plotSeries(cv *canvas, values []float64, lo, hi float64, si int) {
	n := len(values)
	if n == 0 {
		return
	}
	dotW := cv.dotWidth()
	dotH := cv.dotHeight()

	prevX, prevY := -1, 0
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			prevX = -1
			continue
		}
		x := 0
		if n > 1 {
			x = i * (dotW - 1) / (n - 1)
		}
		scaled := (v - lo) / (hi - lo)
		y := (dotH - 1) - int(math.Round(scaled*float64(dotH-1)))
		if prevX >= 0 {
			cv.line(prevX, prevY, x, y, si)
		} else {
			cv.set(x, y, si)
		}
		prevX, prevY = x, y
	}
}

// axisLine renders the bottom axis with the x range worked into it.
// The x column's title, when there is room, sits in the rule between
// the two labels.
func (c Chart) axisLine(set *series.SeriesSet, plotW int) string {
	first, last := xLabels(set)
	fill := plotW - len(first) - len(last)
	if first == "" || fill < 1 {
		return c.Styles.Axis.Render("└" + strings.Repeat("─", plotW))
	}
	if title := axisTitle(set); title != "" && len(title)+2 <= fill {
		left := (fill - len(title)) / 2
		right := fill - len(title) - left
		return c.Styles.Axis.Render("└"+first+strings.Repeat("─", left)) +
			c.Styles.AxisTitle.Render(title) +
			c.Styles.Axis.Render(strings.Repeat("─", right)+last)
	}
	return c.Styles.Axis.Render("└" + first + strings.Repeat("─", fill) + last)
}

func axisTitle(set *series.SeriesSet) string {
	if set.X == nil || set.X.Title == "" {
		return ""
	}
	return " " + set.X.Title + " "
}

func xLabels(set *series.SeriesSet) (string, string) {
	if set.X != nil && len(set.X.Values) > 0 {
		return set.X.Values[0], set.X.Values[len(set.X.Values)-1]
	}
	n := set.Len()
	if n == 0 {
		return "", ""
	}
	return "0", strconv.Itoa(n - 1)
}

func (c Chart) legend(set *series.SeriesSet, width int) string {
	parts := make([]string, 0, len(set.Series))
	for i, s := range set.Series {
		title := s.Title
		if title == "" {
			title = "series " + strconv.Itoa(i)
		}
		parts = append(parts, c.Styles.SeriesStyle(i).Render("●")+" "+title)
	}
	if len(parts) == 0 {
		return ""
	}
	line := c.Styles.Legend.Render(strings.Join(parts, "  "))
	for len(parts) > 1 && lipgloss.Width(line) > width {
		parts = parts[:len(parts)-1]
		line = c.Styles.Legend.Render(strings.Join(parts, "  ") + " …")
	}
	return line
}

func formatVal(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return strings.Repeat(" ", w-len(s)) + s
}
