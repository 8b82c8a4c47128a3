package viz

import (
	"math"
	"strings"

	"github.com/san-kum/walks/internal/walk"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Bounds is the world rectangle shown on a canvas.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// Fit returns bounds enclosing every walker of pos along dimensions xIdx
// and yIdx, padded by 10%. Degenerate extents get a unit span.
func Fit(pos walk.Positions, xIdx, yIdx int) Bounds {
	b := Bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i := 0; i < pos.N(); i++ {
		b = b.include(pos[xIdx][i], pos[yIdx][i])
	}
	return b.pad()
}

func (b Bounds) include(x, y float64) Bounds {
	if math.IsNaN(x) || math.IsNaN(y) {
		return b
	}
	b.MinX, b.MaxX = math.Min(b.MinX, x), math.Max(b.MaxX, x)
	b.MinY, b.MaxY = math.Min(b.MinY, y), math.Max(b.MaxY, y)
	return b
}

func (b Bounds) pad() Bounds {
	if math.IsInf(b.MinX, 1) {
		return Bounds{-1, 1, -1, 1}
	}
	rx, ry := b.MaxX-b.MinX, b.MaxY-b.MinY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	return Bounds{b.MinX - rx*0.1, b.MaxX + rx*0.1, b.MinY - ry*0.1, b.MaxY + ry*0.1}
}

// Contains reports whether (x, y) lies inside b.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Bounds        Bounds
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Bounds: Bounds{-1, 1, -1, 1},
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a dot at sub-pixel (x, y). The canvas is (Width*2) x (Height*4)
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Plot sets the dot nearest to world point (x, y). Points outside the
// bounds are dropped.
func (c *Canvas) Plot(x, y float64) {
	if !c.Bounds.Contains(x, y) {
		return
	}
	px, py := c.toPixel(x, y)
	c.Set(px, py)
}

// PlotEnsemble plots every walker of pos projected on dimensions xIdx and
// yIdx.
func (c *Canvas) PlotEnsemble(pos walk.Positions, xIdx, yIdx int) {
	if xIdx >= pos.Dim() || yIdx >= pos.Dim() {
		return
	}
	for i := 0; i < pos.N(); i++ {
		c.Plot(pos[xIdx][i], pos[yIdx][i])
	}
}

// PlotPath joins consecutive world points with lines.
func (c *Canvas) PlotPath(xs, ys []float64) {
	for i := 1; i < len(xs) && i < len(ys); i++ {
		x0, y0 := c.toPixel(xs[i-1], ys[i-1])
		x1, y1 := c.toPixel(xs[i], ys[i])
		c.DrawLine(x0, y0, x1, y1)
	}
}

func (c *Canvas) toPixel(x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - c.Bounds.MinX) / (c.Bounds.MaxX - c.Bounds.MinX) * w
	py := h - (y-c.Bounds.MinY)/(c.Bounds.MaxY-c.Bounds.MinY)*h
	return int(math.Round(px)), int(math.Round(py))
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Dots counts the set dots.
func (c *Canvas) Dots() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := int(r - brailleBlank); bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
