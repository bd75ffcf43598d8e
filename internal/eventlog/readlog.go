package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/radio"
)

// ErrMalformedLog is returned when an export cannot be decoded.
var ErrMalformedLog = errors.New("malformed event log")

// Export is the content of a JSONL export.
type Export struct {
	Records    []Record
	Placements []Placement
}

// ReadExport decodes a JSONL export into records and node placements.
func ReadExport(r io.Reader) (Export, error) {
	dec := json.NewDecoder(r)
	var out Export
	for line := 1; ; line++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("%w: line %d: %v", ErrMalformedLog, line, err)
		}
		var head struct {
			Kind Kind `json:"kind"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return out, fmt.Errorf("%w: line %d: %v", ErrMalformedLog, line, err)
		}
		switch {
		case head.Kind == KindPlacement:
			var p Placement
			if err := json.Unmarshal(raw, &p); err != nil {
				return out, fmt.Errorf("%w: line %d: %v", ErrMalformedLog, line, err)
			}
			out.Placements = append(out.Placements, p)
		case head.Kind.Valid():
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return out, fmt.Errorf("%w: line %d: %v", ErrMalformedLog, line, err)
			}
			out.Records = append(out.Records, rec)
		default:
			return out, fmt.Errorf("%w: line %d: unknown kind %q", ErrMalformedLog, line, head.Kind)
		}
	}
}

// ReadLog decodes the records of a JSONL export. Placement lines are skipped.
func ReadLog(r io.Reader) ([]Record, error) {
	exp, err := ReadExport(r)
	return exp.Records, err
}

// ReadExportFile opens path and decodes its content.
func ReadExportFile(path string) (Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return Export{}, err
	}
	defer f.Close()
	return ReadExport(f)
}

// ReadLogFile opens path and decodes its records.
func ReadLogFile(path string) ([]Record, error) {
	exp, err := ReadExportFile(path)
	return exp.Records, err
}

// LogFileName names a run log nodes_area_freq_bps_sps_bw_payload_msg_seed.log,
// the field layout the evaluation loader splits on. Every field is an integer:
// area and frequency are rounded, the bit rate is rounded down and the symbol
// rate up.
func LogFileName(cfg config.SimulationConfig) string {
	ch := radio.ChannelParams{
		BandwidthHz:     cfg.BandwidthHz,
		SpreadingFactor: cfg.SpreadingFactor,
		CodingRate:      cfg.CodingRate,
	}
	return fmt.Sprintf("%d_%d_%d_%d_%d_%d_%d_%d_%d.log",
		cfg.Nodes, int64(math.Round(cfg.Area)), int64(math.Round(cfg.FrequencyMHz)),
		int64(math.Floor(radio.BitRate(ch))), int64(math.Ceil(radio.SymbolRate(ch))),
		cfg.BandwidthHz, cfg.PayloadSize, cfg.MessagesPerNode, cfg.Seed)
}
