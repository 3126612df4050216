package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series represents a named data series for plotting. Values are percentages.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions controls plot geometry and colour.
type PlotOptions struct {
	Width      int
	Height     int
	ForceColor bool
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisLabelTop        = "100%"
	axisLabelMid        = "50%"
	axisLabelBottom     = "0%"
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var colorPalette = []string{
	"\x1b[36m", // cyan
	"\x1b[33m", // yellow
	"\x1b[35m", // magenta
	"\x1b[32m", // green
}

// canvas is a grid of braille cells, two dots wide and four dots tall each.
type canvas struct {
	cells  [][]uint8
	owner  [][]int
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, height: height}
	c.cells = make([][]uint8, height)
	c.owner = make([][]int, height)
	for y := range c.cells {
		c.cells[y] = make([]uint8, width)
		c.owner[y] = make([]int, width)
		for x := range c.owner[y] {
			c.owner[y][x] = -1
		}
	}
	return c
}

// dotBits maps (column, row) inside a cell to its braille bit.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) set(x, y, series int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cy][cx] |= dotBits[x%2][y%4]
	if c.owner[cy][cx] == -1 {
		c.owner[cy][cx] = series
	}
}

// line draws with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1, series int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0, series)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// PlotSeries renders series on a fixed 0-100 scale using braille dots.
func PlotSeries(w io.Writer, title string, series []Series, opts PlotOptions) error {
	filtered := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	c := newCanvas(width, height)
	dotRows := height * 4
	for si, s := range filtered {
		values := resampleSeries(s.Values, width*2)
		prevX, prevY := -1, -1
		for x, v := range values {
			y := valueToRow(v, dotRows)
			if prevX >= 0 {
				c.line(prevX, prevY, x, y, si)
			} else {
				c.set(x, y, si)
			}
			prevX, prevY = x, y
		}
	}

	useColor := shouldUseColor(w, opts.ForceColor)
	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	labels := axisLabels(height)
	for y := 0; y < height; y++ {
		fmt.Fprintf(&b, "%*s%s", utf8.RuneCountInString(axisLabelTop), labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			ch := rune(0x2800 + int(c.cells[y][x]))
			if owner := c.owner[y][x]; useColor && owner >= 0 {
				b.WriteString(colorPalette[owner%len(colorPalette)])
				b.WriteRune(ch)
				b.WriteString(colorReset)
				continue
			}
			b.WriteRune(ch)
		}
		b.WriteByte('\n')
	}
	b.WriteString(legend(filtered, useColor))
	b.WriteString("\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		last := s.Values[len(s.Values)-1]
		label := fmt.Sprintf("⣿ %s (last %.1f)", s.Name, last)
		if useColor {
			label = colorPalette[i%len(colorPalette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

// resampleSeries stretches or averages values to exactly n points.
func resampleSeries(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case len(values) == 0 || n <= 0:
		return nil
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
	case len(values) > n:
		for i := 0; i < n; i++ {
			start := i * len(values) / n
			end := (i + 1) * len(values) / n
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := 0; i < n; i++ {
			pos := float64(i) * float64(len(values)-1) / float64(n-1)
			idx := int(math.Floor(pos))
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func valueToRow(v float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	v = math.Max(0, math.Min(100, v))
	return int(math.Round((1 - v/100) * float64(rows-1)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
