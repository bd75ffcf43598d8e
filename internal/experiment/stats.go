package experiment

import (
	"iter"
	"math"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/eventlog"
)

// z value of the two-sided 95% normal interval.
const z95 = 1.959963984540054

// RunStatistics summarizes one completed run.
type RunStatistics struct {
	Run  int   `json:"run"`
	Seed int64 `json:"seed"`

	Nodes       int     `json:"nodes"`
	Transmitted int     `json:"transmitted"`
	Received    int     `json:"received"`
	Lost        int     `json:"lost"`
	LossRate    float64 `json:"loss_rate"`

	Receptions       int `json:"receptions"`
	WrongState       int `json:"wrong_state"`
	Interference     int `json:"interference"`
	UnderSensitivity int `json:"under_sensitivity"`
	TxFailures       int `json:"tx_failures"`
	Clamped          int `json:"clamped,omitempty"`
	EventsExecuted   int `json:"events_executed"`
}

// ComputeRunStatistics derives the statistics of a run from its records.
// Transmitted is nodes × messages and never counted from the log. A packet
// counts as received once, no matter how many nodes decoded it, and only if
// it carried the configured payload size.
func ComputeRunStatistics(cfg config.SimulationConfig, run int, seed int64, records iter.Seq[eventlog.Record]) RunStatistics {
	st := RunStatistics{
		Run:         run,
		Seed:        seed,
		Nodes:       cfg.Nodes,
		Transmitted: cfg.PacketsPerRun(),
	}
	received := make(map[uint64]struct{})
	for r := range records {
		switch r.Kind {
		case eventlog.KindRX:
			if r.Size != cfg.PayloadSize {
				continue
			}
			st.Receptions++
			received[r.PacketID] = struct{}{}
		case eventlog.KindWrongState:
			st.WrongState++
		case eventlog.KindInterference:
			st.Interference++
		case eventlog.KindUnderSensitivity:
			st.UnderSensitivity++
		case eventlog.KindTX:
			if r.Success != nil && !*r.Success {
				st.TxFailures++
			}
		}
	}
	st.Received = len(received)
	st.Lost = max(st.Transmitted-st.Received, 0)
	st.LossRate = lossRate(st.Lost, st.Transmitted)
	return st
}

func lossRate(lost, transmitted int) float64 {
	if transmitted == 0 {
		return 0
	}
	return float64(lost) / float64(transmitted)
}

// FailedRun records a run that did not complete.
type FailedRun struct {
	Run  int   `json:"run"`
	Seed int64 `json:"seed"`
	Err  error `json:"-"`
}

// CampaignStatistics aggregates every run of a campaign.
type CampaignStatistics struct {
	Runs   []RunStatistics `json:"runs"`
	Failed []FailedRun     `json:"failed,omitempty"`

	Transmitted int     `json:"transmitted"`
	Received    int     `json:"received"`
	Lost        int     `json:"lost"`
	LossRate    float64 `json:"loss_rate"`

	MeanLossRate   float64 `json:"mean_loss_rate"`
	StdDevLossRate float64 `json:"stddev_loss_rate"`
	// CILow and CIHigh bound the overall loss rate at 95%, using the normal
	// approximation over all transmitted packets.
	CILow  float64 `json:"ci_low"`
	CIHigh float64 `json:"ci_high"`
}

// Aggregate computes campaign totals from the completed runs.
func Aggregate(runs []RunStatistics, failed []FailedRun) CampaignStatistics {
	cs := CampaignStatistics{Runs: runs, Failed: failed}
	if len(runs) == 0 {
		return cs
	}
	var sum float64
	for _, r := range runs {
		cs.Transmitted += r.Transmitted
		cs.Received += r.Received
		cs.Lost += r.Lost
		sum += r.LossRate
	}
	cs.LossRate = lossRate(cs.Lost, cs.Transmitted)
	cs.MeanLossRate = sum / float64(len(runs))

	if len(runs) > 1 {
		var sq float64
		for _, r := range runs {
			d := r.LossRate - cs.MeanLossRate
			sq += d * d
		}
		cs.StdDevLossRate = math.Sqrt(sq / float64(len(runs)-1))
	}

	if cs.Transmitted > 0 {
		p := cs.LossRate
		half := z95 * math.Sqrt(p*(1-p)/float64(cs.Transmitted))
		cs.CILow = max(p-half, 0)
		cs.CIHigh = min(p+half, 1)
	}
	return cs
}

// Completed reports the number of runs that finished.
func (cs CampaignStatistics) Completed() int { return len(cs.Runs) }
