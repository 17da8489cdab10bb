package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPortStaysInRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		p := NextPort(nil)
		assert.GreaterOrEqual(t, p, portMin)
		assert.LessOrEqual(t, p, portMax)
	}
}

func TestNextPortAvoidsExisting(t *testing.T) {
	existing := make([]int, 0, 4000)
	taken := make(map[int]struct{})
	for p := portMin; p < portMin+4000; p++ {
		existing = append(existing, p)
		taken[p] = struct{}{}
	}
	for i := 0; i < 100; i++ {
		p := NextPort(existing)
		_, collided := taken[p]
		assert.False(t, collided, "allocated port %d is already taken", p)
	}
}

func TestNextPortFullPoolStillReturns(t *testing.T) {
	existing := make([]int, 0, portMax-portMin+1)
	for p := portMin; p <= portMax; p++ {
		existing = append(existing, p)
	}
	p := NextPort(existing)
	assert.GreaterOrEqual(t, p, portMin)
	assert.LessOrEqual(t, p, portMax)
}
