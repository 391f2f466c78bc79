package integrators

import (
	"fmt"
	"sort"
)

type kind int

const (
	explicitRK kind = iota
	velocityVerlet
	implicitRK
)

// tableau holds Butcher coefficients. For explicit methods A has one row per
// stage after the first; a nil b publishes the last stage state (FSAL). b2 is
// the embedded solution used for error control.
type tableau struct {
	A  [][]float64
	b  []float64
	b2 []float64
	c  []float64
}

// Method is an opaque integration scheme descriptor.
type Method struct {
	name     string
	order    int
	adaptive bool
	kind     kind
	tab      tableau
	// predictor estimates the error against an explicit Euler step.
	predictor bool
}

func (m Method) Name() string { return m.name }

// Order is the order handed to the step controller.
func (m Method) Order() int { return m.order }

// Adaptive reports whether the method always runs under step control.
func (m Method) Adaptive() bool { return m.adaptive }

// Embedded reports whether a step yields an error estimate.
func (m Method) Embedded() bool { return m.tab.b2 != nil || m.predictor }

func (m Method) Implicit() bool { return m.kind == implicitRK }

func (m Method) String() string { return m.name }

var (
	Euler = Method{
		name: "euler", order: 1, kind: explicitRK,
		tab: tableau{b: []float64{1}},
	}
	Verlet = Method{name: "verlet", order: 2, kind: velocityVerlet}
	RK4    = Method{
		name: "rk4", order: 4, kind: explicitRK,
		tab: tableau{
			A: [][]float64{
				{0.5},
				{0, 0.5},
				{0, 0, 1},
			},
			b: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
			c: []float64{0.5, 0.5, 1},
		},
	}
	Midpoint = Method{
		name: "midpoint", order: 2, kind: implicitRK,
		tab: tableau{A: [][]float64{{0.5}}, b: []float64{1}, c: []float64{0.5}},
	}
	GL4 = Method{
		name: "gl4", order: 4, kind: implicitRK,
		tab: tableau{
			A: [][]float64{
				{0.25, -0.03867513459481292},
				{0.5386751345948129, 0.25},
			},
			b:  []float64{0.5, 0.5},
			b2: []float64{1.3660254037844386, -0.3660254037844386},
			c:  []float64{0.21132486540518708, 0.7886751345948129},
		},
	}
	GL6 = Method{
		name: "gl6", order: 6, kind: implicitRK,
		tab: tableau{
			A: [][]float64{
				{0.1388888888888889, -0.03597666752493889, 0.009789444015308346},
				{0.3002631949808646, 0.2222222222222222, -0.022485417203086805},
				{0.26798833376246944, 0.4804211119693833, 0.1388888888888889},
			},
			b:  []float64{0.2777777777777778, 0.4444444444444444, 0.2777777777777778},
			b2: []float64{-0.8333333333333334, 2.6666666666666665, -0.8333333333333334},
			c:  []float64{0.1127016653792583, 0.5, 0.8872983346207417},
		},
	}
	HeunEuler = Method{
		name: "heun-euler", order: 1, adaptive: true, kind: explicitRK,
		tab: tableau{
			A:  [][]float64{{1}},
			b:  []float64{0.5, 0.5},
			b2: []float64{1, 0},
			c:  []float64{1},
		},
	}
	DormandPrince = Method{
		name: "dopri", order: 4, adaptive: true, kind: explicitRK,
		tab: tableau{
			A: [][]float64{
				{0.2},
				{0.075, 0.225},
				{0.9777777777777777, -3.7333333333333334, 3.5555555555555554},
				{2.9525986892242035, -11.595793324188385, 9.822892851699436, -0.2908093278463649},
				{2.8462752525252526, -10.757575757575758, 8.906422717743473, 0.2784090909090909, -0.2735313036020583},
				{0.09114583333333333, 0, 0.44923629829290207, 0.6510416666666666, -0.322376179245283, 0.13095238095238096},
			},
			b2: []float64{0.08991319444444444, 0, 0.4534890685834082, 0.6140625, -0.2715123820754717, 0.08904761904761904, 0.025},
			c:  []float64{0.2, 0.3, 0.8, 0.8888888888888888, 1, 1},
		},
	}
	BackwardEuler = Method{
		name: "backward-euler", order: 1, adaptive: true, kind: implicitRK,
		tab:       tableau{A: [][]float64{{1}}, b: []float64{1}, c: []float64{1}},
		predictor: true,
	}
)

var methods = map[string]Method{}

func init() {
	for _, m := range []Method{Euler, Verlet, RK4, Midpoint, GL4, GL6, HeunEuler, DormandPrince, BackwardEuler} {
		methods[m.name] = m
	}
}

// Lookup returns the method registered under name.
func Lookup(name string) (Method, error) {
	m, ok := methods[name]
	if !ok {
		return Method{}, fmt.Errorf("unknown integrator: %s", name)
	}
	return m, nil
}

// Names lists the registered methods alphabetically.
func Names() []string {
	names := make([]string, 0, len(methods))
	for n := range methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
