package metrics

import (
	"github.com/san-kum/epicycle/internal/models"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// Altitude is the fraction of samples whose geodetic altitude stays above
// floor metres. Samples where the altitude cannot be resolved count as
// violations.
type Altitude struct {
	name       string
	floor      float64
	violations int
	samples    int
	lowest     float64
}

func NewAltitude(floor float64) *Altitude {
	return &Altitude{
		name:  "altitude",
		floor: floor,
	}
}

func (a *Altitude) Name() string {
	return a.name
}

func (a *Altitude) Observe(st *vehicle.State, _ *vehicle.Output) {
	_, _, alt, err := models.Geodetic(st.System.R)
	if a.samples == 0 || alt < a.lowest {
		a.lowest = alt
	}
	a.samples++
	if err != nil || alt < a.floor {
		a.violations++
	}
}

func (a *Altitude) Value() float64 {
	if a.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(a.violations)/float64(a.samples)
}

// Lowest is the smallest altitude seen since the last Reset.
func (a *Altitude) Lowest() float64 { return a.lowest }

func (a *Altitude) Reset() {
	a.violations = 0
	a.samples = 0
	a.lowest = 0
}
