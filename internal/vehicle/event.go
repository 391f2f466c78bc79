package vehicle

import "github.com/san-kum/epicycle/internal/linalg"

// Change is a batch of per-object events taking effect at Time.
type Change struct {
	Time    float64
	Objects [NMax]Event
}

// Event is one of NoOp, StateMerge, InputMerge or FieldMerge. A nil Event is
// a NoOp.
type Event interface {
	event()
}

type NoOp struct{}

// StateMerge adds mass, momentum and angular momentum to an object.
type StateMerge struct {
	Mass            float64
	Momentum        linalg.Vec
	AngularMomentum linalg.Vec
}

// InputMerge adds a mass flow rate, force and torque to an object's input.
type InputMerge struct {
	MassFlow float64
	Force    linalg.Vec
	Torque   linalg.Vec
}

// FieldMerge adds charge and dipole moments to an object's EM properties.
type FieldMerge struct {
	Charge         float64
	ElectricDipole linalg.Vec
	MagneticDipole linalg.Vec
}

func (NoOp) event()       {}
func (StateMerge) event() {}
func (InputMerge) event() {}
func (FieldMerge) event() {}

// IsNoOp reports whether e carries nothing to apply.
func IsNoOp(e Event) bool {
	switch e.(type) {
	case nil, NoOp:
		return true
	}
	return false
}

// Pending reports whether any of the first size slots holds an event.
func (c *Change) Pending(size int) bool {
	for i := 0; i < size && i < NMax; i++ {
		if !IsNoOp(c.Objects[i]) {
			return true
		}
	}
	return false
}
