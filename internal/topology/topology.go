// Package topology places nodes in the simulated field.
package topology

import (
	"fmt"
	"math"
	"math/rand/v2"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/radio"
)

// NodePlacement binds a node identifier to its position for one run.
type NodePlacement struct {
	ID       int
	Position radio.Position
}

// Generate draws cfg.Nodes positions from a normal distribution centered on
// the field (mean area/2, variance cfg.PlacementVariance). Coordinates are
// truncated to integers. They are not clamped to the field, so nodes may land
// outside [0, area].
func Generate(cfg config.SimulationConfig, r *rand.Rand) ([]NodePlacement, error) {
	if cfg.Nodes <= 0 {
		return nil, fmt.Errorf("%w: topology needs at least one node, got %d", config.ErrConfiguration, cfg.Nodes)
	}
	if cfg.PlacementVariance < 0 {
		return nil, fmt.Errorf("%w: negative placement variance %g", config.ErrConfiguration, cfg.PlacementVariance)
	}
	mean := cfg.Area / 2
	stddev := math.Sqrt(cfg.PlacementVariance)

	nodes := make([]NodePlacement, cfg.Nodes)
	for i := range nodes {
		x := math.Trunc(mean + stddev*r.NormFloat64())
		y := math.Trunc(mean + stddev*r.NormFloat64())
		nodes[i] = NodePlacement{ID: i, Position: radio.Position{X: x, Y: y}}
	}
	return nodes, nil
}

// IDs returns the node identifiers in placement order.
func IDs(nodes []NodePlacement) []int {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
