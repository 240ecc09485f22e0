package ui

import "strings"

// Braille cell geometry: 2 dot columns by 4 dot rows per terminal
// cell, composed from the U+2800 block.
const (
	brailleBase  rune = 0x2800
	dotsPerCellX      = 2
	dotsPerCellY      = 4
)

// brailleDots maps a dot's position inside its cell to the pattern
// bit that lights it.
var brailleDots = [dotsPerCellY][dotsPerCellX]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// canvas is a braille dot grid. Each terminal cell carries up to 8
// dots and remembers which series drew into it last, so rendering can
// color whole cells.
type canvas struct {
	w, h  int // terminal cells
	bits  []rune
	owner []int
}

func newCanvas(w, h int) *canvas {
	c := &canvas{
		w:     w,
		h:     h,
		bits:  make([]rune, w*h),
		owner: make([]int, w*h),
	}
	for i := range c.owner {
		c.owner[i] = -1
	}
	return c
}

func (c *canvas) dotWidth() int  { return c.w * dotsPerCellX }
func (c *canvas) dotHeight() int { return c.h * dotsPerCellY }

// set lights the dot at (x, y) in dot coordinates for a series. Out
// of range dots are dropped.
func (c *canvas) set(x, y, series int) {
	if x < 0 || y < 0 || x >= c.dotWidth() || y >= c.dotHeight() {
		return
	}
	idx := (y/dotsPerCellY)*c.w + x/dotsPerCellX
	c.bits[idx] |= brailleDots[y%dotsPerCellY][x%dotsPerCellX]
	c.owner[idx] = series
}

// line draws a segment between two dots.
func (c *canvas) line(x0, y0, x1, y1, series int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, series)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// rows renders the canvas, coloring runs of cells by the series that
// owns them.
func (c *canvas) rows(styles Styles) []string {
	out := make([]string, c.h)
	for y := 0; y < c.h; y++ {
		var sb strings.Builder
		x := 0
		for x < c.w {
			owner := c.owner[y*c.w+x]
			var run strings.Builder
			for x < c.w && c.owner[y*c.w+x] == owner {
				bits := c.bits[y*c.w+x]
				if bits == 0 {
					run.WriteRune(' ')
				} else {
					run.WriteRune(brailleBase + bits)
				}
				x++
			}
			if owner < 0 {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(styles.SeriesStyle(owner).Render(run.String()))
			}
		}
		out[y] = sb.String()
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
