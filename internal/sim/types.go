package sim

import (
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// Observer is notified after every driver tick.
type Observer interface {
	OnStep(st *vehicle.State, out *vehicle.Output)
}

type Metric interface {
	Name() string
	Observe(st *vehicle.State, out *vehicle.Output)
	Value() float64
	Reset()
}

// Event is a discrete change scheduled for one object.
type Event struct {
	Time   float64
	Object int
	Change vehicle.Event
}

type Config struct {
	Duration      float64
	Sample        float64 // sampling interval; defaults to the vehicle clock step
	Events        []Event
	ValidateState bool
}

// Sample is the composite state at one sampling time.
type Sample struct {
	N      uint64
	T      float64
	System vehicle.System
	Mass   float64
	Center linalg.Vec
}

type Result struct {
	Samples  []Sample
	Metrics  map[string]float64
	Steps    uint64
	Rejected int
	Events   int
}

// Final returns the last sample, or the zero Sample for an empty result.
func (r *Result) Final() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}

func sampleOf(st *vehicle.State, out *vehicle.Output) Sample {
	return Sample{
		N:      st.Clock.N,
		T:      st.Clock.T,
		System: st.System,
		Mass:   out.Mass,
		Center: out.Center,
	}
}
