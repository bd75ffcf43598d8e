// Package experiment drives simulation runs and campaigns of runs.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/engine"
	"lorad2d-sim/internal/eventlog"
	"lorad2d-sim/internal/radio"
	"lorad2d-sim/internal/rng"
	"lorad2d-sim/internal/schedule"
	"lorad2d-sim/internal/topology"
)

// State is the lifecycle stage of a Runner.
type State int

const (
	Configured State = iota
	TopologyBuilt
	DevicesInstalled
	Scheduled
	Running
	Completed
	Failed
)

var stateNames = [...]string{"configured", "topology-built", "devices-installed", "scheduled", "running", "completed", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// NetworkFactory builds a fresh radio network bound to the run's clock.
type NetworkFactory func(clock radio.Clock) radio.Network

// DefaultNetwork builds the reference LoRa medium.
func DefaultNetwork(clock radio.Clock) radio.Network {
	return radio.NewMedium(clock, radio.DefaultPathLoss)
}

// ScheduleFunc plans the transmissions of a run.
type ScheduleFunc func(cfg config.SimulationConfig, nodeIDs []int, r *rand.Rand) []schedule.TransmissionEvent

// Options are the collaborators shared by every run of a campaign. Zero
// fields fall back to the reference medium, the random schedule, no sink and
// slog.Default().
type Options struct {
	CampaignID string
	Network    NetworkFactory
	Schedule   ScheduleFunc
	Sink       eventlog.Writer
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Network == nil {
		o.Network = DefaultNetwork
	}
	if o.Schedule == nil {
		o.Schedule = schedule.Generate
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ChannelParams maps a configuration onto the shared channel of a run.
func ChannelParams(cfg config.SimulationConfig) radio.ChannelParams {
	return radio.ChannelParams{
		FrequencyMHz:    cfg.FrequencyMHz,
		BandwidthHz:     cfg.BandwidthHz,
		SpreadingFactor: cfg.SpreadingFactor,
		CodingRate:      cfg.CodingRate,
		TxPowerDBm:      cfg.TxPowerDBm,
		PreambleSymbols: radio.DefaultPreambleSymbols,
	}
}

// Runner executes a single run. A Runner is used once.
type Runner struct {
	cfg     config.SimulationConfig
	streams *rng.Manager
	run     int
	seed    int64
	opts    Options
	logger  *slog.Logger
	state   State

	// per-run state, released when Run returns
	clock   *engine.Scheduler
	network radio.Network
	log     *eventlog.Log
	nodes   []topology.NodePlacement
	devices map[int]radio.DeviceID
	owners  map[radio.DeviceID]int
	clamped int
}

// NewRunner prepares run number run of a campaign.
func NewRunner(cfg config.SimulationConfig, streams *rng.Manager, run int, opts Options) *Runner {
	opts = opts.withDefaults()
	return &Runner{
		cfg:     cfg,
		streams: streams,
		run:     run,
		opts:    opts,
		logger:  opts.Logger.With("run", run),
		state:   Configured,
	}
}

// State returns the current lifecycle stage.
func (r *Runner) State() State { return r.state }

// Run walks the runner through every stage and returns the statistics of
// the completed run.
func (r *Runner) Run(ctx context.Context) (RunStatistics, error) {
	if r.state != Configured {
		return RunStatistics{}, fmt.Errorf("runner already used (state %s)", r.state)
	}
	defer r.release()

	seed, err := r.streams.Seed(r.run)
	if err != nil {
		return r.fail(err)
	}
	r.seed = seed
	r.logger = r.logger.With("seed", seed)

	if err := r.buildTopology(); err != nil {
		return r.fail(err)
	}
	if err := r.installDevices(); err != nil {
		return r.fail(err)
	}
	if err := r.scheduleTransmissions(); err != nil {
		return r.fail(err)
	}

	r.advance(Running)
	if first, ok := r.clock.NextEventTime(); ok {
		r.logger.Debug("clock started", "first_event", first, "stop", r.cfg.StopTime(), "pending", r.clock.Pending())
	}
	if err := r.clock.Run(ctx, r.cfg.StopTime()); err != nil {
		return r.fail(err)
	}
	r.advance(Completed)

	st := ComputeRunStatistics(r.cfg, r.run, r.seed, r.log.Query(nil))
	st.EventsExecuted = r.clock.Executed()
	st.Clamped = r.clamped
	r.logger.Info("run complete",
		"transmitted", st.Transmitted, "received", st.Received,
		"loss_rate", st.LossRate, "events", st.EventsExecuted)
	return st, nil
}

func (r *Runner) buildTopology() error {
	stream, err := r.streams.Stream(rng.Placement, r.run)
	if err != nil {
		return err
	}
	nodes, err := topology.Generate(r.cfg, stream)
	if err != nil {
		return err
	}
	r.nodes = nodes
	r.advance(TopologyBuilt)
	return nil
}

func (r *Runner) installDevices() error {
	r.clock = engine.New()
	r.network = r.opts.Network(r.clock)
	r.log = eventlog.New(r.opts.Sink).WithLogger(r.logger)

	ch, err := r.network.CreateChannel(ChannelParams(r.cfg))
	if err != nil {
		return &DeviceInstallError{Node: -1, Err: err}
	}
	r.devices = make(map[int]radio.DeviceID, len(r.nodes))
	r.owners = make(map[radio.DeviceID]int, len(r.nodes))
	for _, n := range r.nodes {
		dev, err := r.network.CreateDevice(n.Position, ch)
		if err != nil {
			return &DeviceInstallError{Node: n.ID, Err: err}
		}
		r.devices[n.ID] = dev
		r.owners[dev] = n.ID
		r.place(n)
	}
	r.network.Subscribe(r.onRadioEvent)
	r.advance(DevicesInstalled)
	return nil
}

func (r *Runner) scheduleTransmissions() error {
	stream, err := r.streams.Stream(rng.Scheduling, r.run)
	if err != nil {
		return err
	}
	events := r.opts.Schedule(r.cfg, topology.IDs(r.nodes), stream)
	for _, ev := range events {
		dev, ok := r.devices[ev.Node]
		if !ok {
			r.logger.Warn("transmission for unknown node dropped", "node", ev.Node)
			continue
		}
		at, clamped := schedule.Clamp(ev.At, r.cfg.Horizon)
		if clamped {
			r.clamped++
			r.logger.Warn("schedule clamp", "node", ev.Node, "drawn", ev.At, "clamped", at)
		}
		node, size := ev.Node, ev.PayloadSize
		r.clock.ScheduleAt(at, func() {
			pkt, ok := r.network.Send(dev, size)
			r.record(eventlog.Transmission(r.clock.Now(), node, pkt, size, ok))
		})
	}
	r.logger.Debug("transmissions scheduled", "count", len(events))
	r.advance(Scheduled)
	return nil
}

var eventKinds = map[radio.EventKind]eventlog.Kind{
	radio.Received:         eventlog.KindRX,
	radio.WrongState:       eventlog.KindWrongState,
	radio.Interference:     eventlog.KindInterference,
	radio.UnderSensitivity: eventlog.KindUnderSensitivity,
}

func (r *Runner) onRadioEvent(ev radio.Event) {
	kind, ok := eventKinds[ev.Kind]
	if !ok {
		r.logger.Warn("unknown radio event", "kind", ev.Kind)
		return
	}
	receiver, ok := r.owners[ev.Device]
	if !ok {
		r.logger.Warn("radio event for unknown device", "device", ev.Device)
		return
	}
	rec := eventlog.Reception(r.clock.Now(), kind, receiver, ev.PacketID, ev.Size)
	if sender, ok := r.owners[ev.Sender]; ok {
		rec.Sender = &sender
	}
	r.record(rec)
}

// place reports where node n was installed.
func (r *Runner) place(n topology.NodePlacement) {
	p := eventlog.Placement{
		CampaignID: r.opts.CampaignID,
		Run:        r.run,
		Seed:       r.seed,
		Node:       n.ID,
		X:          n.Position.X,
		Y:          n.Position.Y,
	}
	r.logger.Debug("node placed", "node", n.ID, "x", n.Position.X, "y", n.Position.Y)
	if err := eventlog.WritePlacement(r.opts.Sink, p); err != nil {
		r.logger.Warn("placement sink write failed", "node", n.ID, "err", err)
	}
}

func (r *Runner) record(rec eventlog.Record) {
	rec.CampaignID = r.opts.CampaignID
	rec.Run = r.run
	rec.Seed = r.seed
	r.log.Record(rec)
}

func (r *Runner) advance(s State) {
	r.logger.Debug("run state", "from", r.state, "to", s)
	r.state = s
}

func (r *Runner) fail(err error) (RunStatistics, error) {
	r.logger.Error("run failed", "state", r.state, "err", err)
	r.state = Failed
	return RunStatistics{}, err
}

func (r *Runner) release() {
	r.clock = nil
	r.network = nil
	r.log = nil
	r.nodes = nil
	r.devices = nil
	r.owners = nil
}
