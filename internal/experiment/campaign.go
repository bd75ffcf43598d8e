package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/rng"
)

// Campaign runs cfg.Iterations independent runs, one after the other.
type Campaign struct {
	cfg   config.SimulationConfig
	opts  Options
	start time.Time

	// OnRun, when set, is called after every completed run.
	OnRun func(RunStatistics)
}

// NewCampaign creates a campaign. A campaign id is generated unless
// opts.CampaignID is set.
func NewCampaign(cfg config.SimulationConfig, opts Options) *Campaign {
	if opts.CampaignID == "" {
		opts.CampaignID = uuid.NewString()
	}
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.With("campaign_id", opts.CampaignID)
	return &Campaign{cfg: cfg, opts: opts, start: time.Now()}
}

// ID returns the campaign id stamped on every record.
func (c *Campaign) ID() string { return c.opts.CampaignID }

// Run executes every iteration. An invalid configuration fails before any run
// starts. When a run cannot install its devices, the statistics gathered so
// far are returned together with an *AbortedError.
func (c *Campaign) Run(ctx context.Context) (CampaignStatistics, error) {
	if err := c.cfg.Validate(); err != nil {
		return CampaignStatistics{}, err
	}
	streams, err := rng.NewManager(c.cfg.Seed)
	if err != nil {
		return CampaignStatistics{}, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}

	log := c.opts.Logger
	log.Info("campaign started", "iterations", c.cfg.Iterations, "nodes", c.cfg.Nodes,
		"msg", c.cfg.MessagesPerNode, "seed", c.cfg.Seed)

	var (
		runs   = make([]RunStatistics, 0, c.cfg.Iterations)
		failed []FailedRun
	)
	for i := 0; i < c.cfg.Iterations; i++ {
		seed, err := streams.Seed(i)
		if err != nil {
			return Aggregate(runs, failed), err
		}
		st, err := NewRunner(c.cfg, streams, i, c.opts).Run(ctx)
		if err != nil {
			var install *DeviceInstallError
			if errors.As(err, &install) {
				failed = append(failed, FailedRun{Run: i, Seed: seed, Err: err})
				return Aggregate(runs, failed), &AbortedError{Run: i, Err: err}
			}
			return Aggregate(runs, failed), err
		}
		runs = append(runs, st)
		if c.OnRun != nil {
			c.OnRun(st)
		}
	}

	stats := Aggregate(runs, failed)
	log.Info("campaign finished", "runs", len(runs), "transmitted", stats.Transmitted,
		"received", stats.Received, "loss_rate", stats.LossRate, "elapsed", time.Since(c.start).Round(time.Millisecond))
	return stats, nil
}
