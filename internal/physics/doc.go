// Package physics turns a vehicle's object records into composite mass
// properties, net loads and a state derivative.
//
//   - [Aggregate]: mass, centre of mass and inertia of the composite
//   - [AccumulateLoads], [SolveDerivative]: Euler's rigid-body equations
//   - [Coast], [SolveDelta]: kinematic prediction and momentum-conserving
//     jumps across discrete mass changes
//   - [ApplyChange]: folds pending events into the records
//   - [Engine]: composes the above with a list of [ForceModel] plugins
//
// All functions work on caller-owned buffers and return an error without
// writing when the input is degenerate.
package physics
