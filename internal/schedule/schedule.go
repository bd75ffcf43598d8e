// Package schedule draws per-node transmission times.
package schedule

import (
	"math/rand/v2"
	"time"

	"lorad2d-sim/internal/config"
)

// TransmissionEvent is a transmission that has been planned but not fired.
type TransmissionEvent struct {
	Node        int
	At          time.Duration
	PayloadSize int
}

// Generate draws cfg.MessagesPerNode uniform times over [0, horizon] for
// every node. Draws are independent, so two events may share a time.
func Generate(cfg config.SimulationConfig, nodeIDs []int, r *rand.Rand) []TransmissionEvent {
	events := make([]TransmissionEvent, 0, len(nodeIDs)*max(cfg.MessagesPerNode, 0))
	for _, id := range nodeIDs {
		for i := 0; i < cfg.MessagesPerNode; i++ {
			at := time.Duration(r.Float64() * float64(cfg.Horizon))
			events = append(events, TransmissionEvent{Node: id, At: at, PayloadSize: cfg.PayloadSize})
		}
	}
	return events
}

// Clamp forces t into [0, horizon] and reports whether it had to move.
func Clamp(t, horizon time.Duration) (time.Duration, bool) {
	switch {
	case t < 0:
		return 0, true
	case t > horizon:
		return horizon, true
	}
	return t, false
}
