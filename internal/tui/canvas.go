package tui

import (
	"math"
	"strings"

	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/models"
)

const trailLength = 120

type point struct{ x, y int }

// canvas is a character grid showing the orbit projected on the equatorial
// plane. Terminal cells are about twice as tall as they are wide, so rows are
// scaled by half.
type canvas struct {
	w, h  int
	cells [][]rune
	trail []point
	scale float64 // metres across half the width
}

func newCanvas(w, h int, scale float64) *canvas {
	c := &canvas{w: w, h: h, scale: scale}
	c.cells = make([][]rune, h)
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.clear()
	return c
}

func (c *canvas) clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y][x] = r
	}
}

func (c *canvas) line(x1, y1, x2, y2 int, r rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *canvas) project(r linalg.Vec) point {
	k := float64(c.w/2) / c.scale
	return point{
		x: c.w/2 + int(math.Round(r[0]*k)),
		y: c.h/2 - int(math.Round(r[1]*k/2)),
	}
}

func (c *canvas) earth() {
	const segments = 48
	o := c.project(linalg.Vec{})
	c.set(o.x, o.y, '+')
	if models.RadiusEquator/c.scale > 4 {
		return
	}

	prev := c.project(linalg.Vec{models.RadiusEquator, 0, 0})
	for i := 1; i <= segments; i++ {
		th := 2 * math.Pi * float64(i) / segments
		p := c.project(linalg.Vec{models.RadiusEquator * math.Cos(th), models.RadiusEquator * math.Sin(th), 0})
		c.line(prev.x, prev.y, p.x, p.y, '.')
		prev = p
	}
}

// track adds a position to the trail and redraws the frame.
func (c *canvas) track(r linalg.Vec) {
	p := c.project(r)
	c.trail = append(c.trail, p)
	if len(c.trail) > trailLength {
		c.trail = c.trail[1:]
	}

	c.clear()
	c.earth()
	for i, pt := range c.trail {
		if i < len(c.trail)/2 {
			c.set(pt.x, pt.y, '·')
		} else {
			c.set(pt.x, pt.y, 'o')
		}
	}
	c.set(p.x, p.y, 'O')
}

func (c *canvas) reset() {
	c.trail = c.trail[:0]
	c.clear()
}

func (c *canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// sceneScale fits an orbit of radius r with some margin, and never shows
// less than the whole Earth.
func sceneScale(r float64) float64 {
	return math.Max(r, models.RadiusEquator) * 1.2
}
