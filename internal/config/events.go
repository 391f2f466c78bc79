package config

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

const (
	KindState = "state"
	KindInput = "input"
	KindField = "field"
)

// EventSpec is a scripted change applied to one object, Time seconds after
// the start of the run.
type EventSpec struct {
	Time   float64 `yaml:"time" mapstructure:"time"`
	Object int     `yaml:"object" mapstructure:"object"`
	Kind   string  `yaml:"kind" mapstructure:"kind"`

	Mass            float64    `yaml:"mass,omitempty" mapstructure:"mass"`
	Momentum        [3]float64 `yaml:"momentum,omitempty" mapstructure:"momentum"`
	AngularMomentum [3]float64 `yaml:"angular_momentum,omitempty" mapstructure:"angular_momentum"`

	MassFlow float64    `yaml:"mass_flow,omitempty" mapstructure:"mass_flow"`
	Force    [3]float64 `yaml:"force,omitempty" mapstructure:"force"`
	Torque   [3]float64 `yaml:"torque,omitempty" mapstructure:"torque"`

	Charge         float64    `yaml:"charge,omitempty" mapstructure:"charge"`
	ElectricDipole [3]float64 `yaml:"electric_dipole,omitempty" mapstructure:"electric_dipole"`
	MagneticDipole [3]float64 `yaml:"magnetic_dipole,omitempty" mapstructure:"magnetic_dipole"`
}

// Event converts the spec into the vehicle change it describes.
func (e EventSpec) Event() (vehicle.Event, error) {
	switch e.Kind {
	case KindState:
		return vehicle.StateMerge{
			Mass:            e.Mass,
			Momentum:        linalg.Vec(e.Momentum),
			AngularMomentum: linalg.Vec(e.AngularMomentum),
		}, nil
	case KindInput:
		return vehicle.InputMerge{
			MassFlow: e.MassFlow,
			Force:    linalg.Vec(e.Force),
			Torque:   linalg.Vec(e.Torque),
		}, nil
	case KindField:
		return vehicle.FieldMerge{
			Charge:         e.Charge,
			ElectricDipole: linalg.Vec(e.ElectricDipole),
			MagneticDipole: linalg.Vec(e.MagneticDipole),
		}, nil
	case "", "noop":
		return vehicle.NoOp{}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
}
