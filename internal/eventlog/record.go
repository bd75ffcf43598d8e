// Package eventlog records per-run simulation events and streams them to sinks.
package eventlog

import (
	"fmt"
	"time"
)

// Kind labels a record.
type Kind string

const (
	KindTX               Kind = "TX"
	KindRX               Kind = "RX"
	KindWrongState       Kind = "FW"
	KindInterference     Kind = "FI"
	KindUnderSensitivity Kind = "FS"
)

// Valid reports whether k is a known record kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTX, KindRX, KindWrongState, KindInterference, KindUnderSensitivity:
		return true
	}
	return false
}

// Record is one logged event. Receiver is nil for TX records, Sender is nil
// for reception outcomes and Success is only set on TX.
type Record struct {
	Time       time.Duration `json:"time_ns"`
	Kind       Kind          `json:"kind"`
	CampaignID string        `json:"campaign_id,omitempty"`
	Run        int           `json:"run"`
	Seed       int64         `json:"seed"`
	Receiver   *int          `json:"receiver,omitempty"`
	Sender     *int          `json:"sender,omitempty"`
	PacketID   uint64        `json:"packet_id"`
	Size       int           `json:"size"`
	Success    *bool         `json:"success,omitempty"`
}

// Transmission builds a TX record.
func Transmission(at time.Duration, sender int, packetID uint64, size int, ok bool) Record {
	return Record{Time: at, Kind: KindTX, Sender: &sender, PacketID: packetID, Size: size, Success: &ok}
}

// Reception builds a reception outcome record of the given kind.
func Reception(at time.Duration, kind Kind, receiver int, packetID uint64, size int) Record {
	return Record{Time: at, Kind: kind, Receiver: &receiver, PacketID: packetID, Size: size}
}

func (r Record) String() string {
	return fmt.Sprintf("%s t=%s run=%d pkt=%d", r.Kind, r.Time, r.Run, r.PacketID)
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}

func optBool(p *bool) string {
	if p == nil {
		return ""
	}
	if *p {
		return "1"
	}
	return "0"
}
