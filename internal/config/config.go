// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks an invalid or missing parameter. It is fatal and
// reported before any run starts.
var ErrConfiguration = errors.New("configuration error")

// Defaults of the reference D2D experiment.
const (
	DefaultNodes             = 50
	DefaultArea              = 10000
	DefaultPlacementVariance = 2_000_000
	DefaultFrequencyMHz      = 433
	DefaultBandwidthHz       = 125000
	DefaultSpreadingFactor   = 7
	DefaultCodingRate        = 1
	DefaultTxPowerDBm        = 14
	DefaultPayloadSize       = 50
	DefaultHorizon           = 120 * time.Second
	DefaultDrainMargin       = 10 * time.Second
	DefaultMessagesPerNode   = 1
	DefaultIterations        = 1
	DefaultSeed              = 35039
)

// MaxPayloadSize is the largest LoRa PHY payload in bytes.
const MaxPayloadSize = 255

// SimulationConfig is the immutable description of one campaign. It is
// passed by value to every component.
type SimulationConfig struct {
	Nodes int `yaml:"nodes"`
	// Area is the field size, in the same unit as node coordinates.
	Area float64 `yaml:"area"`
	// PlacementVariance is the variance of the normal distribution used to
	// place nodes around the field center.
	PlacementVariance float64 `yaml:"placement_variance"`

	FrequencyMHz    float64 `yaml:"freq"`
	BandwidthHz     int     `yaml:"bw"`
	SpreadingFactor int     `yaml:"sf"`
	CodingRate      int     `yaml:"cr"`
	TxPowerDBm      float64 `yaml:"tx_power_dbm"`

	PayloadSize     int           `yaml:"payload_size"`
	Horizon         time.Duration `yaml:"sim_time"`
	DrainMargin     time.Duration `yaml:"drain_margin"`
	MessagesPerNode int           `yaml:"msg"`
	Iterations      int           `yaml:"iterations"`
	Seed            int64         `yaml:"seed"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() SimulationConfig {
	return SimulationConfig{
		Nodes:             DefaultNodes,
		Area:              DefaultArea,
		PlacementVariance: DefaultPlacementVariance,
		FrequencyMHz:      DefaultFrequencyMHz,
		BandwidthHz:       DefaultBandwidthHz,
		SpreadingFactor:   DefaultSpreadingFactor,
		CodingRate:        DefaultCodingRate,
		TxPowerDBm:        DefaultTxPowerDBm,
		PayloadSize:       DefaultPayloadSize,
		Horizon:           DefaultHorizon,
		DrainMargin:       DefaultDrainMargin,
		MessagesPerNode:   DefaultMessagesPerNode,
		Iterations:        DefaultIterations,
		Seed:              DefaultSeed,
	}
}

// Load reads a YAML config, validates it against the embedded CUE schema and
// applies it on top of Defaults.
func Load(path string) (SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("%w: read config: %v", ErrConfiguration, err)
	}
	return Parse(data)
}

// Parse is Load without the file access.
func Parse(data []byte) (SimulationConfig, error) {
	if err := ValidateWithCue(data); err != nil {
		return SimulationConfig{}, err
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SimulationConfig{}, fmt.Errorf("%w: parse config: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks every numeric field. All problems are reported at once;
// each of them matches ErrConfiguration with errors.Is.
func (c SimulationConfig) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...))
	}
	if c.Nodes <= 0 {
		bad("node count must be positive, got %d", c.Nodes)
	}
	if c.Area <= 0 {
		bad("field size must be positive, got %g", c.Area)
	}
	if c.PlacementVariance < 0 {
		bad("placement variance must not be negative, got %g", c.PlacementVariance)
	}
	if c.FrequencyMHz <= 0 {
		bad("frequency must be positive, got %g", c.FrequencyMHz)
	}
	if c.BandwidthHz <= 0 {
		bad("bandwidth must be positive, got %d", c.BandwidthHz)
	}
	if c.SpreadingFactor < 7 || c.SpreadingFactor > 12 {
		bad("spreading factor must be within 7..12, got %d", c.SpreadingFactor)
	}
	if c.CodingRate < 1 || c.CodingRate > 4 {
		bad("coding rate must be within 1..4, got %d", c.CodingRate)
	}
	if c.PayloadSize <= 0 || c.PayloadSize > MaxPayloadSize {
		bad("payload size must be within 1..%d, got %d", MaxPayloadSize, c.PayloadSize)
	}
	if c.Horizon <= 0 {
		bad("simulation time must be positive, got %s", c.Horizon)
	}
	if c.DrainMargin < 0 {
		bad("drain margin must not be negative, got %s", c.DrainMargin)
	}
	if c.MessagesPerNode < 0 {
		bad("messages per node must not be negative, got %d", c.MessagesPerNode)
	}
	if c.Iterations <= 0 {
		bad("iteration count must be positive, got %d", c.Iterations)
	}
	return errors.Join(errs...)
}

// StopTime is the simulated time at which a run is forcibly stopped.
func (c SimulationConfig) StopTime() time.Duration {
	return c.Horizon + c.DrainMargin
}

// PacketsPerRun is the a-priori number of transmissions in one run.
func (c SimulationConfig) PacketsPerRun() int {
	return c.Nodes * c.MessagesPerNode
}
