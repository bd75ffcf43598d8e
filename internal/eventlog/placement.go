package eventlog

import (
	"fmt"
	"strconv"
)

// KindPlacement tags node placements in JSONL exports. It is not a record
// kind: placements never enter a Log.
const KindPlacement Kind = "POS"

// Placement is the position a node was installed at in one run.
type Placement struct {
	CampaignID string  `json:"campaign_id,omitempty"`
	Run        int     `json:"run"`
	Seed       int64   `json:"seed"`
	Node       int     `json:"node"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// String renders p as the position line the evaluation scripts parse.
func (p Placement) String() string {
	return fmt.Sprintf("Position: X=%s, Y=%s, ID=%d", formatCoord(p.X), formatCoord(p.Y), p.Node)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PlacementWriter is implemented by sinks that also export node placements.
type PlacementWriter interface {
	WritePlacement(Placement) error
}

// WritePlacement forwards p to w when w exports placements. Other writers
// ignore it.
func WritePlacement(w Writer, p Placement) error {
	if pw, ok := w.(PlacementWriter); ok {
		return pw.WritePlacement(p)
	}
	return nil
}
