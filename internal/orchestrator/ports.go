package orchestrator

import (
	"math/rand"
)

const (
	portMin         = 1000
	portMax         = 9999
	maxPortAttempts = 100
)

// NextPort draws a random external port from [portMin, portMax] avoiding the
// ports already claimed on the device. After maxPortAttempts collisions it
// returns one last unchecked sample rather than failing: a rare duplicate
// rule is recoverable by the operator, a hard stop on provisioning is not.
func NextPort(existing []int) int {
	taken := make(map[int]struct{}, len(existing))
	for _, p := range existing {
		taken[p] = struct{}{}
	}
	for i := 0; i < maxPortAttempts; i++ {
		p := portMin + rand.Intn(portMax-portMin+1)
		if _, ok := taken[p]; !ok {
			return p
		}
	}
	return portMin + rand.Intn(portMax-portMin+1)
}
