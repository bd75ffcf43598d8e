package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"lorad2d-sim/internal/config"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "LORAD2D"

// setting binds one configuration key to its flag and its field.
type setting struct {
	key   string
	flag  string
	usage string
	apply func(*config.SimulationConfig, any) error
}

var settings = []setting{
	{"nodes", "nodes", "Number of nodes", intField(func(c *config.SimulationConfig) *int { return &c.Nodes })},
	{"area", "area", "Size of the field", floatField(func(c *config.SimulationConfig) *float64 { return &c.Area })},
	{"placement_variance", "placement-variance", "Variance of the node placement distribution", floatField(func(c *config.SimulationConfig) *float64 { return &c.PlacementVariance })},
	{"freq", "freq", "Center frequency in MHz", floatField(func(c *config.SimulationConfig) *float64 { return &c.FrequencyMHz })},
	{"bw", "bw", "Bandwidth in Hz", intField(func(c *config.SimulationConfig) *int { return &c.BandwidthHz })},
	{"sf", "sf", "Spreading factor", intField(func(c *config.SimulationConfig) *int { return &c.SpreadingFactor })},
	{"cr", "cr", "Coding rate", intField(func(c *config.SimulationConfig) *int { return &c.CodingRate })},
	{"tx_power_dbm", "tx-power", "Transmit power in dBm", floatField(func(c *config.SimulationConfig) *float64 { return &c.TxPowerDBm })},
	{"payload_size", "payload-size", "Size of the payload in bytes", intField(func(c *config.SimulationConfig) *int { return &c.PayloadSize })},
	{"sim_time", "sim-time", "Total simulation time (seconds or a duration like 2m)", durationField(func(c *config.SimulationConfig) *time.Duration { return &c.Horizon })},
	{"drain_margin", "drain-margin", "Extra simulated time after the horizon", durationField(func(c *config.SimulationConfig) *time.Duration { return &c.DrainMargin })},
	{"msg", "msg", "How many messages a node should send", intField(func(c *config.SimulationConfig) *int { return &c.MessagesPerNode })},
	{"iterations", "iterations", "Number of runs", intField(func(c *config.SimulationConfig) *int { return &c.Iterations })},
	{"seed", "seed", "The seed for initializing the random streams", func(c *config.SimulationConfig, v any) error {
		n, err := decimalInt(v, 64)
		c.Seed = n
		return err
	}},
}

// decimalInt parses strings in base 10 only, so "010" is ten and "0x20" is
// rejected. Other values go through cast.
func decimalInt(v any, bitSize int) (int64, error) {
	if s, ok := v.(string); ok {
		return strconv.ParseInt(strings.TrimSpace(s), 10, bitSize)
	}
	return cast.ToInt64E(v)
}

func decimalFloat(v any) (float64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if digits := strings.TrimLeft(s, "+-"); len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
			return 0, fmt.Errorf("%q is not a decimal number", s)
		}
		return strconv.ParseFloat(s, 64)
	}
	return cast.ToFloat64E(v)
}

func intField(f func(*config.SimulationConfig) *int) func(*config.SimulationConfig, any) error {
	return func(c *config.SimulationConfig, v any) error {
		n, err := decimalInt(v, strconv.IntSize)
		*f(c) = int(n)
		return err
	}
}

func floatField(f func(*config.SimulationConfig) *float64) func(*config.SimulationConfig, any) error {
	return func(c *config.SimulationConfig, v any) error {
		n, err := decimalFloat(v)
		*f(c) = n
		return err
	}
}

// durationField reads plain numbers as seconds and anything else as a Go
// duration.
func durationField(f func(*config.SimulationConfig) *time.Duration) func(*config.SimulationConfig, any) error {
	return func(c *config.SimulationConfig, v any) error {
		if secs, err := decimalFloat(v); err == nil {
			*f(c) = time.Duration(secs * float64(time.Second))
			return nil
		}
		d, err := cast.ToDurationE(v)
		*f(c) = d
		return err
	}
}

// addConfigFlags registers one flag per configuration key. Values are kept
// as strings so that flags, environment and YAML share one conversion path.
func addConfigFlags(fs *pflag.FlagSet) {
	for _, s := range settings {
		fs.String(s.flag, "", s.usage)
	}
}

// resolveConfig layers defaults, the YAML file at path, LORAD2D_*
// environment variables and explicitly set flags, in that order.
func resolveConfig(fs *pflag.FlagSet, path string) (config.SimulationConfig, error) {
	cfg := config.Defaults()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, s := range settings {
		if f := fs.Lookup(s.flag); f != nil {
			if err := v.BindPFlag(s.key, f); err != nil {
				return cfg, err
			}
		}
	}

	for _, s := range settings {
		if !v.IsSet(s.key) {
			continue
		}
		raw := v.Get(s.key)
		if str, ok := raw.(string); ok && strings.TrimSpace(str) == "" {
			continue
		}
		if err := s.apply(&cfg, raw); err != nil {
			return cfg, fmt.Errorf("%w: %s: %v", config.ErrConfiguration, s.key, err)
		}
	}
	return cfg, nil
}
