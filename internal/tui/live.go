package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/epicycle/internal/models"
	"github.com/san-kum/epicycle/internal/vehicle"
)

const (
	width       = 70
	height      = 24
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer draws the orbit to a terminal while a propagation runs. It is
// attached to a propagator as an observer and redraws at most frameRate
// times per second.
type LiveRenderer struct {
	name      string
	frameRate int
	lastFrame time.Time
	canvas    *canvas
	w         io.Writer
}

func NewLiveRenderer(w io.Writer, name string, frameRate int, radius float64) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{
		name:      name,
		frameRate: frameRate,
		canvas:    newCanvas(width, height, sceneScale(radius)),
		w:         w,
	}
}

func (r *LiveRenderer) OnStep(st *vehicle.State, out *vehicle.Output) {
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.canvas.track(st.System.R)
	r.render(st, out)
}

func (r *LiveRenderer) render(st *vehicle.State, out *vehicle.Output) {
	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  n=%d  t=%.1fs\n", r.name, st.Clock.N, st.Clock.T)
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas.cells {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	sys := st.System
	_, _, alt, err := models.Geodetic(sys.R)
	if err != nil {
		b.WriteString("  alt=?")
	} else {
		fmt.Fprintf(&b, "  alt=%.1fkm", alt/1e3)
	}
	fmt.Fprintf(&b, " |v|=%.1fm/s |w|=%.3frad/s m=%.1fkg\n", sys.V.Norm(), sys.W.Norm(), out.Mass)

	io.WriteString(r.w, b.String())
}

func (r *LiveRenderer) Start() { io.WriteString(r.w, hideCursor) }
func (r *LiveRenderer) Stop()  { io.WriteString(r.w, showCursor) }
