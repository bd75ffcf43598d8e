// Package radio defines the boundary to the device/channel collaborator that
// carries frames between simulated nodes.
package radio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrUnknownDevice  = errors.New("unknown device")
)

// Position is a point in the simulated field, in meters.
type Position struct {
	X, Y, Z float64
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Position) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y) + (a.Z-b.Z)*(a.Z-b.Z))
}

// ChannelID identifies a shared channel created by a Network.
type ChannelID int

// DeviceID identifies a device created by a Network.
type DeviceID uint32

// ChannelParams are the transmission parameters shared by every device on a
// channel.
type ChannelParams struct {
	FrequencyMHz    float64
	BandwidthHz     int
	SpreadingFactor int
	CodingRate      int
	TxPowerDBm      float64
	PreambleSymbols int
	CRC             bool
	// LowDataRateOptimize toggles the DE bit of the time-on-air formula.
	LowDataRateOptimize bool
}

// Validate reports parameters the time-on-air formula cannot handle.
func (p ChannelParams) Validate() error {
	switch {
	case p.SpreadingFactor < 7 || p.SpreadingFactor > 12:
		return fmt.Errorf("spreading factor %d outside 7..12", p.SpreadingFactor)
	case p.BandwidthHz <= 0:
		return fmt.Errorf("bandwidth %d must be positive", p.BandwidthHz)
	case p.CodingRate < 1 || p.CodingRate > 4:
		return fmt.Errorf("coding rate %d outside 1..4", p.CodingRate)
	case p.PreambleSymbols < 0:
		return fmt.Errorf("preamble length %d must not be negative", p.PreambleSymbols)
	}
	return nil
}

// EventKind classifies what happened to a frame at a receiving device.
type EventKind uint8

const (
	Received EventKind = iota + 1
	// WrongState: the receiver was transmitting.
	WrongState
	Interference
	UnderSensitivity
)

func (k EventKind) String() string {
	switch k {
	case Received:
		return "received"
	case WrongState:
		return "wrong_state"
	case Interference:
		return "interference"
	case UnderSensitivity:
		return "under_sensitivity"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event is delivered to listeners for every frame a device received or lost.
type Event struct {
	Kind     EventKind
	Device   DeviceID
	Size     int
	PacketID uint64
	Sender   DeviceID
}

// Listener receives reception and loss notifications.
type Listener func(Event)

// Network is the device/channel collaborator the experiment driver talks to.
type Network interface {
	CreateChannel(ChannelParams) (ChannelID, error)
	CreateDevice(Position, ChannelID) (DeviceID, error)
	// Send starts transmitting size bytes. ok is false when the device could
	// not transmit.
	Send(dev DeviceID, size int) (packetID uint64, ok bool)
	Subscribe(Listener)
}

// Clock is the scheduler primitive a Network implementation is driven by.
type Clock interface {
	Now() time.Duration
	Schedule(delay time.Duration, action func())
}
