// Package vehicle defines the shared image of a composite rigid body: its
// configuration, state, pending changes and the scratch buffers recomputed on
// every derivative evaluation.
package vehicle

import (
	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
)

const NMax = dynamo.NMax

type Symbol [4]byte

// NewSymbol truncates s to four bytes.
func NewSymbol(s string) Symbol {
	var sym Symbol
	copy(sym[:], s)
	return sym
}

func (s Symbol) String() string {
	n := 0
	for n < len(s) && s[n] != 0 {
		n++
	}
	return string(s[:n])
}

// Config is written once before propagation starts.
type Config struct {
	Clock   ConfigClock
	System  ConfigSystem
	Objects [NMax]ConfigObject
}

type ConfigClock struct {
	Step float64
}

type ConfigSystem struct {
	Symbol Symbol
}

type ConfigObject struct {
	Symbol   Symbol
	Box      linalg.Diag // body-frame half extents
	Position linalg.Vec  // offset in the system frame
	Attitude linalg.Quat // fixed attitude relative to the system frame
}

// State is overwritten in place by the propagator.
type State struct {
	Clock   Clock
	System  System
	Objects [NMax]Object
}

type Clock struct {
	N uint64
	T float64
}

// System is the composite body's kinematic state: inertial position,
// body-to-inertial attitude, inertial velocity and body angular velocity.
type System struct {
	R linalg.Vec
	Q linalg.Quat
	V linalg.Vec
	W linalg.Vec
}

type Object struct {
	Mass            float64
	Inertia         linalg.Diag // principal, about the object's centre of mass
	Momentum        linalg.Vec
	AngularMomentum linalg.Vec
}

type Input struct {
	System  InputSystem
	Objects [NMax]InputObject
}

// InputSystem holds the net loads of the last evaluation. Force is inertial,
// Torque is about the system origin in the body frame.
type InputSystem struct {
	MassFlow float64
	Force    linalg.Vec
	Torque   linalg.Vec
	VDot     linalg.Vec
	WDot     linalg.Vec
}

// InputObject is expressed in the object frame.
type InputObject struct {
	MassFlow float64
	Force    linalg.Vec
	Torque   linalg.Vec
}

// Output holds the composite mass properties. Center is in the body frame,
// Inertia is about the centre of mass.
type Output struct {
	Mass    float64
	Center  linalg.Vec
	Inertia linalg.Mat
}

type EM struct {
	System  EMSystem
	Objects [NMax]EMObject
}

type EMSystem struct {
	Charge         float64
	ElectricDipole linalg.Vec
	MagneticDipole linalg.Vec
	E              linalg.Vec
	B              linalg.Vec
}

type EMObject struct {
	Charge         float64
	ElectricDipole linalg.Vec
	MagneticDipole linalg.Vec
}

// Vehicle is the whole shared image.
type Vehicle struct {
	Size   int
	Config Config
	State  State
	Change Change
	Input  Input
	Output Output
	EM     EM
}

// New returns an empty vehicle with size objects, unit attitudes and no
// pending events.
func New(size int) (*Vehicle, error) {
	if err := dynamo.Capacity(size); err != nil {
		return nil, err
	}
	v := &Vehicle{Size: size}
	v.State.System.Q = linalg.One()
	for i := range v.Config.Objects {
		v.Config.Objects[i].Attitude = linalg.One()
	}
	return v, nil
}
