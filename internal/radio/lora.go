package radio

import (
	"math"
	"time"
)

// DefaultPreambleSymbols is the LoRa preamble length used by the experiments.
const DefaultPreambleSymbols = 8

// sensitivityDBm per spreading factor 7..12 at 125 kHz.
var sensitivityDBm = [...]float64{-124, -127, -130, -133, -135, -137}

// Sensitivity returns the receiver sensitivity for a spreading factor.
func Sensitivity(sf int) float64 {
	if sf < 7 {
		sf = 7
	}
	if sf > 12 {
		sf = 12
	}
	return sensitivityDBm[sf-7]
}

// SymbolRate returns the symbols per second of a channel.
func SymbolRate(p ChannelParams) float64 {
	return float64(p.BandwidthHz) / math.Exp2(float64(p.SpreadingFactor))
}

// BitRate returns the raw data rate of a channel in bits per second.
func BitRate(p ChannelParams) float64 {
	return float64(p.SpreadingFactor) * SymbolRate(p) * 4 / float64(4+p.CodingRate)
}

// TimeOnAir returns how long a frame of size bytes occupies the channel.
func TimeOnAir(p ChannelParams, size int) time.Duration {
	sf := float64(p.SpreadingFactor)
	tSym := math.Pow(2, sf) / float64(p.BandwidthHz)
	preamble := (float64(p.PreambleSymbols) + 4.25) * tSym

	crc, de := 0.0, 0.0
	if p.CRC {
		crc = 1
	}
	if p.LowDataRateOptimize {
		de = 1
	}
	// explicit header, H = 0
	num := 8*float64(size) - 4*sf + 28 + 16*crc
	den := 4 * (sf - 2*de)
	payloadSymbols := 8 + math.Max(math.Ceil(num/den)*float64(p.CodingRate+4), 0)

	seconds := preamble + payloadSymbols*tSym
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// LogDistance is a log-distance path loss model.
type LogDistance struct {
	Exponent          float64
	ReferenceDistance float64
	ReferenceLoss     float64
}

// DefaultPathLoss matches the urban LoRa setup of the experiments.
var DefaultPathLoss = LogDistance{Exponent: 3.76, ReferenceDistance: 1, ReferenceLoss: 7.7}

// Loss returns the attenuation in dB over distance d meters.
func (m LogDistance) Loss(d float64) float64 {
	if d <= m.ReferenceDistance {
		return m.ReferenceLoss
	}
	return m.ReferenceLoss + 10*m.Exponent*math.Log10(d/m.ReferenceDistance)
}

const speedOfLight = 299792458.0

// PropagationDelay returns the constant-speed delay over d meters.
func PropagationDelay(d float64) time.Duration {
	return time.Duration(d / speedOfLight * float64(time.Second))
}
