package radio

import (
	"fmt"
	"time"
)

// Medium is a reference Network: every device hears every other device on
// the same channel whose received power clears the sensitivity threshold.
// Devices are half duplex and overlapping frames at one receiver are lost.
//
// Medium is not safe for concurrent use; it is driven by a single Clock.
type Medium struct {
	clock     Clock
	pathLoss  LogDistance
	channels  []ChannelParams
	devices   []*device
	listeners []Listener
	lastID    uint64
}

type device struct {
	id      DeviceID
	pos     Position
	channel ChannelID
	txUntil time.Duration
	rx      []*reception
}

type reception struct {
	packetID uint64
	sender   DeviceID
	size     int
	lost     EventKind
}

// NewMedium returns an empty Medium driven by clock.
func NewMedium(clock Clock, pathLoss LogDistance) *Medium {
	return &Medium{clock: clock, pathLoss: pathLoss}
}

// CreateChannel registers a channel.
func (m *Medium) CreateChannel(p ChannelParams) (ChannelID, error) {
	if p.PreambleSymbols == 0 {
		p.PreambleSymbols = DefaultPreambleSymbols
	}
	if err := p.Validate(); err != nil {
		return 0, fmt.Errorf("create channel: %w", err)
	}
	m.channels = append(m.channels, p)
	return ChannelID(len(m.channels) - 1), nil
}

// CreateDevice places a device on ch at pos.
func (m *Medium) CreateDevice(pos Position, ch ChannelID) (DeviceID, error) {
	if int(ch) < 0 || int(ch) >= len(m.channels) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChannel, ch)
	}
	d := &device{id: DeviceID(len(m.devices)), pos: pos, channel: ch}
	m.devices = append(m.devices, d)
	return d.id, nil
}

// Subscribe adds a listener for reception and loss events.
func (m *Medium) Subscribe(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Send starts a transmission. It fails while dev is still transmitting.
func (m *Medium) Send(dev DeviceID, size int) (uint64, bool) {
	src, ok := m.device(dev)
	if !ok || size <= 0 {
		return 0, false
	}
	now := m.clock.Now()
	if now < src.txUntil {
		return 0, false
	}
	params := m.channels[src.channel]
	airtime := TimeOnAir(params, size)
	src.txUntil = now + airtime

	// a half-duplex radio abandons whatever it was receiving
	for _, r := range src.rx {
		if r.lost == 0 {
			r.lost = WrongState
		}
	}

	m.lastID++
	packetID := m.lastID
	for _, dst := range m.devices {
		if dst == src || dst.channel != src.channel {
			continue
		}
		dst := dst
		dist := Distance(src.pos, dst.pos)
		power := params.TxPowerDBm - m.pathLoss.Loss(dist)
		m.clock.Schedule(PropagationDelay(dist), func() {
			m.arrive(dst, src.id, packetID, size, power, airtime)
		})
	}
	return packetID, true
}

func (m *Medium) arrive(dst *device, sender DeviceID, packetID uint64, size int, power float64, airtime time.Duration) {
	ev := Event{Device: dst.id, Size: size, PacketID: packetID, Sender: sender}
	if power < Sensitivity(m.channels[dst.channel].SpreadingFactor) {
		ev.Kind = UnderSensitivity
		m.emit(ev)
		return
	}
	if m.clock.Now() < dst.txUntil {
		ev.Kind = WrongState
		m.emit(ev)
		return
	}

	rec := &reception{packetID: packetID, sender: sender, size: size}
	if len(dst.rx) > 0 {
		rec.lost = Interference
		for _, other := range dst.rx {
			if other.lost == 0 {
				other.lost = Interference
			}
		}
	}
	dst.rx = append(dst.rx, rec)
	m.clock.Schedule(airtime, func() { m.finish(dst, rec) })
}

func (m *Medium) finish(dst *device, rec *reception) {
	for i, r := range dst.rx {
		if r == rec {
			dst.rx = append(dst.rx[:i], dst.rx[i+1:]...)
			break
		}
	}
	kind := rec.lost
	if kind == 0 {
		kind = Received
	}
	m.emit(Event{Kind: kind, Device: dst.id, Size: rec.size, PacketID: rec.packetID, Sender: rec.sender})
}

func (m *Medium) emit(ev Event) {
	for _, l := range m.listeners {
		l(ev)
	}
}

func (m *Medium) device(id DeviceID) (*device, bool) {
	if int(id) >= len(m.devices) {
		return nil, false
	}
	return m.devices[id], true
}
