// Package export renders trajectories as SVG images.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/walks/internal/output"
	"github.com/san-kum/walks/internal/viz"
)

const (
	background = "#0a0a0a"
	pathColor  = "#e45756"
	dotColor   = "#00ff00"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=%q>\n", dotColor)

	// Braille dot-to-bit mapping
	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// WritePaths draws the path of every walker through the recorded snapshots,
// projected on dimensions xIdx and yIdx. A walker's path starts at the
// first snapshot that contains it.
func WritePaths(w io.Writer, tr *output.Trajectory, xIdx, yIdx, width, height int) error {
	if tr.Len() == 0 {
		return fmt.Errorf("trajectory is empty")
	}
	if dim := len(tr.Positions[0]); xIdx >= dim || yIdx >= dim {
		return fmt.Errorf("dimensions %d,%d out of range for %d-dimensional walkers", xIdx, yIdx, dim)
	}

	b := bounds(tr, xIdx, yIdx)
	project := func(x, y float64) (float64, float64) {
		return (x - b.MinX) / (b.MaxX - b.MinX) * float64(width),
			float64(height) - (y-b.MinY)/(b.MaxY-b.MinY)*float64(height)
	}

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, "<g fill=\"none\" stroke=%q stroke-width=\"0.3\">\n", pathColor)

	for i := 0; i < tr.MaxCount(); i++ {
		started := false
		for k := 0; k < tr.Len(); k++ {
			if !tr.Valid(k, i) {
				continue
			}
			x, y := project(tr.Positions[k][xIdx][i], tr.Positions[k][yIdx][i])
			if !started {
				fmt.Fprintf(&sb, "<path d=\"M%.1f,%.1f", x, y)
				started = true
				continue
			}
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
		if started {
			sb.WriteString("\"/>\n")
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func bounds(tr *output.Trajectory, xIdx, yIdx int) viz.Bounds {
	var b viz.Bounds
	first := true
	for k := range tr.Positions {
		snap := tr.Snapshot(k)
		if snap.N() == 0 {
			continue
		}
		fit := viz.Fit(snap, xIdx, yIdx)
		if first {
			b, first = fit, false
			continue
		}
		b.MinX, b.MaxX = min(b.MinX, fit.MinX), max(b.MaxX, fit.MaxX)
		b.MinY, b.MaxY = min(b.MinY, fit.MinY), max(b.MaxY, fit.MaxY)
	}
	if first {
		return viz.Bounds{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1}
	}
	return b
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}
