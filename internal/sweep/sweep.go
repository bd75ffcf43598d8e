// Package sweep expands a sweep plan into one configuration per experiment.
package sweep

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"lorad2d-sim/internal/config"
)

// ErrUnknownPlan is returned when a plan is neither a file nor a built-in.
var ErrUnknownPlan = errors.New("unknown sweep plan")

// Plan is a named list of experiments. Base is applied first, then the
// overrides of each experiment, so any configuration key may be varied.
type Plan struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Base        yaml.Node    `yaml:"base,omitempty"`
	Experiments []Experiment `yaml:"experiments"`
}

// Experiment is one point of a sweep.
type Experiment struct {
	Name      string    `yaml:"name"`
	Overrides yaml.Node `yaml:"overrides,omitempty"`
}

// Named pairs an experiment name with its resolved configuration.
type Named struct {
	Name   string
	Config config.SimulationConfig
}

// Load reads a YAML sweep plan from disk.
func Load(p string) (*Plan, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML sweep plan.
func Parse(b []byte) (*Plan, error) {
	var pl Plan
	if err := yaml.Unmarshal(b, &pl); err != nil {
		return nil, fmt.Errorf("%w: parse plan: %v", config.ErrConfiguration, err)
	}
	if len(pl.Experiments) == 0 {
		return nil, fmt.Errorf("%w: plan %q has no experiments", config.ErrConfiguration, pl.Name)
	}
	seen := make(map[string]bool)
	for i, e := range pl.Experiments {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: experiment %d has no name", config.ErrConfiguration, i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: duplicate experiment %q", config.ErrConfiguration, e.Name)
		}
		seen[e.Name] = true
	}
	return &pl, nil
}

// Configs resolves every experiment on top of base. Each override block is
// checked against the configuration schema and the result validated.
func (p *Plan) Configs(base config.SimulationConfig) ([]Named, error) {
	common, err := apply(base, &p.Base)
	if err != nil {
		return nil, fmt.Errorf("plan %q base: %w", p.Name, err)
	}
	out := make([]Named, 0, len(p.Experiments))
	for _, e := range p.Experiments {
		cfg, err := apply(common, &e.Overrides)
		if err != nil {
			return nil, fmt.Errorf("experiment %q: %w", e.Name, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("experiment %q: %w", e.Name, err)
		}
		out = append(out, Named{Name: e.Name, Config: cfg})
	}
	return out, nil
}

func apply(cfg config.SimulationConfig, n *yaml.Node) (config.SimulationConfig, error) {
	if n.IsZero() {
		return cfg, nil
	}
	raw, err := yaml.Marshal(n)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	if err := config.ValidateWithCue(raw); err != nil {
		return cfg, err
	}
	if err := n.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	return cfg, nil
}

//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltIn returns the plans shipped with the binary, keyed by file name
// without extension.
func BuiltIn() (map[string]*Plan, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	plans := make(map[string]*Plan, len(entries))
	for _, e := range entries {
		b, err := builtinFS.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			return nil, err
		}
		pl, err := Parse(b)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
		plans[strings.TrimSuffix(e.Name(), ".yaml")] = pl
	}
	return plans, nil
}

// Resolve loads ref as a file, falling back to a built-in plan of that name.
func Resolve(ref string) (*Plan, error) {
	if _, err := os.Stat(ref); err == nil {
		return Load(ref)
	}
	plans, err := BuiltIn()
	if err != nil {
		return nil, err
	}
	if pl, ok := plans[ref]; ok {
		return pl, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, ref)
}
