package radio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"lorad2d-sim/internal/engine"
)

func defaultParams() ChannelParams {
	return ChannelParams{FrequencyMHz: 433, BandwidthHz: 125000, SpreadingFactor: 7, CodingRate: 1, TxPowerDBm: 14}
}

type collector struct{ events []Event }

func (c *collector) listen(ev Event) { c.events = append(c.events, ev) }

func (c *collector) byDevice(id DeviceID) []Event {
	var out []Event
	for _, ev := range c.events {
		if ev.Device == id {
			out = append(out, ev)
		}
	}
	return out
}

func setup(t *testing.T, positions ...Position) (*engine.Scheduler, *Medium, []DeviceID, *collector) {
	t.Helper()
	sched := engine.New()
	m := NewMedium(sched, DefaultPathLoss)
	ch, err := m.CreateChannel(defaultParams())
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	var ids []DeviceID
	for _, p := range positions {
		id, err := m.CreateDevice(p, ch)
		if err != nil {
			t.Fatalf("CreateDevice: %v", err)
		}
		ids = append(ids, id)
	}
	c := &collector{}
	m.Subscribe(c.listen)
	return sched, m, ids, c
}

func TestTimeOnAir(t *testing.T) {
	cases := []struct {
		sf   int
		size int
		want time.Duration
	}{
		{7, 50, 97536 * time.Microsecond},
		{12, 50, 1974272 * time.Microsecond},
	}
	for _, tc := range cases {
		p := defaultParams()
		p.SpreadingFactor = tc.sf
		p.PreambleSymbols = DefaultPreambleSymbols
		got := TimeOnAir(p, tc.size)
		if diff := got - tc.want; diff > time.Microsecond || diff < -time.Microsecond {
			t.Errorf("SF%d %dB: got %s, want %s", tc.sf, tc.size, got, tc.want)
		}
	}
}

func TestRates(t *testing.T) {
	p := defaultParams()
	if got := SymbolRate(p); math.Abs(got-976.5625) > 1e-9 {
		t.Fatalf("SymbolRate = %v", got)
	}
	if got := BitRate(p); math.Abs(got-5468.75) > 1e-9 {
		t.Fatalf("BitRate = %v", got)
	}
	p.BandwidthHz = 250000
	if got := BitRate(p); math.Abs(got-10937.5) > 1e-9 {
		t.Fatalf("BitRate at 250 kHz = %v", got)
	}
}

func TestLogDistanceLoss(t *testing.T) {
	if got := DefaultPathLoss.Loss(0.5); got != 7.7 {
		t.Fatalf("loss within reference distance = %g", got)
	}
	if got := DefaultPathLoss.Loss(100); math.Abs(got-82.9) > 1e-9 {
		t.Fatalf("loss at 100m = %g, want 82.9", got)
	}
}

func TestReceived(t *testing.T) {
	sched, m, ids, c := setup(t, Position{}, Position{X: 100})
	pkt, ok := m.Send(ids[0], 50)
	if !ok || pkt == 0 {
		t.Fatalf("Send failed")
	}
	if err := sched.Run(context.Background(), time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(c.events) != 1 {
		t.Fatalf("expected one event, got %+v", c.events)
	}
	ev := c.events[0]
	if ev.Kind != Received || ev.Device != ids[1] || ev.Sender != ids[0] || ev.PacketID != pkt || ev.Size != 50 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestUnderSensitivity(t *testing.T) {
	sched, m, ids, c := setup(t, Position{}, Position{X: 100000})
	m.Send(ids[0], 50)
	if err := sched.Run(context.Background(), time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(c.events) != 1 || c.events[0].Kind != UnderSensitivity {
		t.Fatalf("expected under-sensitivity loss, got %+v", c.events)
	}
}

func TestWrongStateWhenBothTransmit(t *testing.T) {
	sched, m, ids, c := setup(t, Position{}, Position{X: 100})
	m.Send(ids[0], 50)
	m.Send(ids[1], 50)
	if err := sched.Run(context.Background(), time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(c.events) != 2 {
		t.Fatalf("expected two events, got %+v", c.events)
	}
	for _, ev := range c.events {
		if ev.Kind != WrongState {
			t.Fatalf("expected wrong-state loss, got %+v", ev)
		}
	}
}

func TestInterference(t *testing.T) {
	sched, m, ids, c := setup(t, Position{}, Position{X: 200}, Position{X: 100})
	m.Send(ids[0], 50)
	m.Send(ids[1], 50)
	if err := sched.Run(context.Background(), time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := c.byDevice(ids[2])
	if len(got) != 2 {
		t.Fatalf("expected two events at the middle node, got %+v", got)
	}
	for _, ev := range got {
		if ev.Kind != Interference {
			t.Fatalf("expected interference loss, got %+v", ev)
		}
	}
}

func TestTransmitAbortsReception(t *testing.T) {
	sched, m, ids, c := setup(t, Position{}, Position{X: 100})
	m.Send(ids[0], 50)
	sched.ScheduleAt(50*time.Millisecond, func() {
		if _, ok := m.Send(ids[1], 50); !ok {
			t.Errorf("second device should be able to transmit")
		}
	})
	if err := sched.Run(context.Background(), time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, ev := range c.events {
		if ev.Kind != WrongState {
			t.Fatalf("expected wrong-state losses only, got %+v", c.events)
		}
	}
	if len(c.events) != 2 {
		t.Fatalf("expected two events, got %+v", c.events)
	}
}

func TestSendWhileBusy(t *testing.T) {
	_, m, ids, _ := setup(t, Position{}, Position{X: 100})
	if _, ok := m.Send(ids[0], 50); !ok {
		t.Fatalf("first send must succeed")
	}
	if _, ok := m.Send(ids[0], 50); ok {
		t.Fatalf("second send while transmitting must fail")
	}
	if _, ok := m.Send(DeviceID(99), 50); ok {
		t.Fatalf("unknown device must fail")
	}
}

func TestCreateDeviceUnknownChannel(t *testing.T) {
	m := NewMedium(engine.New(), DefaultPathLoss)
	_, err := m.CreateDevice(Position{}, ChannelID(3))
	if !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
	p := defaultParams()
	p.SpreadingFactor = 5
	if _, err := m.CreateChannel(p); err == nil {
		t.Fatalf("expected invalid channel params to fail")
	}
}
