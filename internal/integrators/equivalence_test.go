package integrators_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/integrators"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

const mu = 3.986004415e14

func pointMass(_ float64, y vehicle.System) (vehicle.System, error) {
	r := y.R.Norm()
	return vehicle.System{
		R: y.V,
		Q: vehicle.Rate(y.W),
		V: y.R.Scale(-mu / (r * r * r)),
	}, nil
}

var _ = Describe("one second of a low orbit", func() {
	var (
		y0     vehicle.System
		wantR  linalg.Vec
		wantV  linalg.Vec
		radius = 7e6
	)

	BeforeEach(func() {
		y0 = vehicle.System{
			R: linalg.Vec{radius, 0, 0},
			Q: linalg.One(),
			V: linalg.Vec{0, 7e3, 0},
		}
		g := mu / (radius * radius)
		wantR = linalg.Vec{radius - g/2, 7e3, 0}
		wantV = linalg.Vec{-g, 7e3, 0}
	})

	DescribeTable("agrees with the Taylor expansion",
		func(name string, tol float64) {
			m, err := integrators.Lookup(name)
			Expect(err).NotTo(HaveOccurred())

			res, err := integrators.Advance(m, pointMass, 0, y0, 1, integrators.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.T).To(Equal(1.0))
			Expect(res.Y.R.Sub(wantR).Norm()).To(BeNumerically("<=", tol*wantR.Norm()))
			Expect(res.Y.V.Sub(wantV).Norm()).To(BeNumerically("<=", tol*wantV.Norm()))
			Expect(res.Y.Q).To(Equal(linalg.One()))
		},
		Entry("rk4", "rk4", dynamo.RelTol),
		Entry("verlet", "verlet", dynamo.RelTol),
		Entry("dopri", "dopri", dynamo.RelTol),
		Entry("midpoint", "midpoint", dynamo.RelTol),
		Entry("gl4", "gl4", dynamo.RelTol),
		Entry("gl6", "gl6", dynamo.RelTol),
		Entry("euler", "euler", 1e-3),
		Entry("heun-euler", "heun-euler", 1e-3),
		Entry("backward-euler", "backward-euler", 1e-3),
	)

	It("keeps the velocity component of every method within a metre per second of rk4", func() {
		ref, err := integrators.Advance(integrators.RK4, pointMass, 0, y0, 1, integrators.Options{})
		Expect(err).NotTo(HaveOccurred())
		for _, name := range integrators.Names() {
			m, _ := integrators.Lookup(name)
			res, err := integrators.Advance(m, pointMass, 0, y0, 1, integrators.Options{})
			Expect(err).NotTo(HaveOccurred(), name)
			Expect(res.Y.V.Sub(ref.Y.V).Norm()).To(BeNumerically("<", 1.0), name)
		}
	})
})

var _ = Describe("step control", func() {
	It("carries a proposed step across intervals", func() {
		y0 := vehicle.System{R: linalg.Vec{7e6, 0, 0}, Q: linalg.One(), V: linalg.Vec{0, 7.5e3, 0}}
		res, err := integrators.Advance(integrators.DormandPrince, pointMass, 0, y0, 600, integrators.Options{Step: 60})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.T).To(Equal(600.0))
		Expect(res.Next).To(BeNumerically(">", 0))

		// Specific orbital energy is conserved to the controller's tolerance.
		energy := func(s vehicle.System) float64 {
			return s.V.Dot(s.V)/2 - mu/s.R.Norm()
		}
		Expect(energy(res.Y)).To(BeNumerically("~", energy(y0), 1e-3*-energy(y0)))
	})
})
