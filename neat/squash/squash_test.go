package squash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceSquashBounds(t *testing.T) {
	r := Reference{}
	assert.InDelta(t, 0.5, r.Squash(0), 1e-9)
	assert.True(t, r.Squash(1000) < 1.0)
	assert.True(t, r.Squash(-1000) > 0.0)
	assert.True(t, r.Squash(5) > r.Squash(-5))
}

func TestReferenceDerivativePositive(t *testing.T) {
	r := Reference{}
	for _, x := range []float64{-10, -1, 0, 1, 10} {
		assert.True(t, r.Derivative(x) > 0)
	}
	assert.InDelta(t, 0.5, r.Derivative(0), 1e-9)
}
