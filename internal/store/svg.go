package store

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/san-kum/epicycle/internal/analysis"
	"github.com/san-kum/epicycle/internal/sim"
)

const (
	svgSize   = 600
	svgStroke = "#00ffff"
)

func ExportSVG(path string, samples []sim.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteSVG(file, samples)
}

// WriteSVG draws the track of the samples projected on the equatorial plane.
func WriteSVG(w io.Writer, samples []sim.Sample) error {
	points := make([]analysis.Point, len(samples))
	for i, s := range samples {
		points[i] = analysis.Point{X: s.System.R[0], Y: s.System.R[1]}
	}
	_, err := io.WriteString(w, TrajectoryToSVG(points, svgSize, svgSize, svgStroke))
	return err
}

// TrajectoryToSVG renders points as one path. Both axes share the larger
// of the two ranges so orbits keep their shape.
func TrajectoryToSVG(points []analysis.Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX, minY, maxY := analysis.Bounds(points)
	span := max(maxX-minX, maxY-minY)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	minX, minY = cx-span/2, cy-span/2

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / span * float64(width)
		y := float64(height) - (p.Y-minY)/span*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
