// Package squash defines the bounded differentiable scalar activation capability used by every
// Network. Modeled on the teacher's neat/math activation registry (neat/math/activations.go),
// reduced to the single capability set spec §9 calls for: {squash(x), derivative(x)}, swappable
// at Network construction but owned for the Network's lifetime thereafter.
package squash

import "math"

// Squasher is a bounded differentiable scalar activation function plus its derivative.
type Squasher interface {
	// Squash maps x onto (0, 1).
	Squash(x float64) float64
	// Derivative returns d(Squash)/dx at x.
	Derivative(x float64) float64
}

// Reference is the default Squasher named in spec §2: f(x) = x/(2(1+|x|)) + 0.5,
// f'(x) = 0.5/(1+|x|)^2.
type Reference struct{}

// Squash implements Squasher.
func (Reference) Squash(x float64) float64 {
	return x/(2*(1+math.Abs(x))) + 0.5
}

// Derivative implements Squasher.
func (Reference) Derivative(x float64) float64 {
	d := 1 + math.Abs(x)
	return 0.5 / (d * d)
}

// Default is the process-wide default Squasher implementation; Networks may override it at
// construction time but otherwise share this instance since it is stateless.
var Default Squasher = Reference{}
