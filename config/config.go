// Package config holds the YAML configuration of the mgindex driver.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/notargets/MGIndex/element"
	"github.com/notargets/MGIndex/index"
	"github.com/notargets/MGIndex/partitions"
	"github.com/notargets/MGIndex/prolong"
	"github.com/notargets/MGIndex/xfem"
)

// Config is the complete driver configuration
type Config struct {
	Mesh      MeshConfig      `yaml:"mesh"`
	Refine    RefineConfig    `yaml:"refine"`
	Interface InterfaceConfig `yaml:"interface"`
	Fields    []FieldConfig   `yaml:"fields"`
	XFEM      XFEMConfig      `yaml:"xfem"`
	Build     BuildConfig     `yaml:"build"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MeshConfig selects the coarse mesh. A non-empty File is read instead of
// generating a brick.
type MeshConfig struct {
	File   string     `yaml:"file"`
	Origin [3]float64 `yaml:"origin"`
	Size   [3]float64 `yaml:"size"`
	Cells  [3]int     `yaml:"cells"`
}

// RefineConfig sets the number of uniform and interface driven refinements
type RefineConfig struct {
	Uniform  int `yaml:"uniform"`
	Adaptive int `yaml:"adaptive"`
}

// InterfaceConfig is a sphere levelset; cells closer than Band to the
// interface are refined adaptively
type InterfaceConfig struct {
	Center [3]float64 `yaml:"center"`
	Radius float64    `yaml:"radius"`
	Band   float64    `yaml:"band"`
}

// FieldConfig describes one unknown field
type FieldConfig struct {
	Name            string `yaml:"name"`
	FE              string `yaml:"fe"`
	Components      int    `yaml:"components"`
	ExcludeBoundary bool   `yaml:"exclude_boundary"`
}

// XFEMConfig configures enrichment of P1X fields
type XFEMConfig struct {
	OmitBound   float64 `yaml:"omit_bound"`
	BoundPolicy string  `yaml:"bound_policy"` // exclusive or inclusive
}

// BuildConfig configures prolongation assembly
type BuildConfig struct {
	Workers  int    `yaml:"workers"`
	Strategy string `yaml:"strategy"` // block, roundrobin or cost
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			Size:  [3]float64{1, 1, 1},
			Cells: [3]int{2, 2, 2},
		},
		Refine: RefineConfig{Uniform: 1, Adaptive: 2},
		Interface: InterfaceConfig{
			Center: [3]float64{0.5, 0.5, 0.5},
			Radius: 0.3,
			Band:   0.15,
		},
		Fields: []FieldConfig{
			{Name: "velocity", FE: "P2", Components: 3, ExcludeBoundary: true},
			{Name: "pressure", FE: "P1X"},
		},
		XFEM:    XFEMConfig{OmitBound: xfem.DefaultOmitBound, BoundPolicy: "exclusive"},
		Build:   BuildConfig{Workers: 1, Strategy: "block"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks ranges and names
func (c *Config) Validate() error {
	if c.Mesh.File == "" {
		for i := 0; i < 3; i++ {
			if c.Mesh.Cells[i] < 1 {
				return fmt.Errorf("%w: mesh.cells[%d] = %d", index.ErrConfiguration, i, c.Mesh.Cells[i])
			}
			if c.Mesh.Size[i] <= 0 {
				return fmt.Errorf("%w: mesh.size[%d] = %g", index.ErrConfiguration, i, c.Mesh.Size[i])
			}
		}
	}
	if c.Refine.Uniform < 0 || c.Refine.Adaptive < 0 {
		return fmt.Errorf("%w: negative refinement count", index.ErrConfiguration)
	}
	if c.Interface.Radius <= 0 || c.Interface.Band < 0 {
		return fmt.Errorf("%w: interface radius %g band %g", index.ErrConfiguration, c.Interface.Radius, c.Interface.Band)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: no fields", index.ErrConfiguration)
	}
	seen := make(map[string]bool)
	for _, fc := range c.Fields {
		f, err := fc.Field()
		if err != nil {
			return err
		}
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: field %q listed twice", index.ErrConfiguration, f.Name)
		}
		seen[f.Name] = true
	}
	if _, err := c.XFEM.Options(); err != nil {
		return err
	}
	if _, err := c.Build.Options(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", index.ErrConfiguration, err)
	}
	return nil
}

// Field converts the entry to an index field
func (fc FieldConfig) Field() (index.Field, error) {
	fe, err := element.ParseFEType(fc.FE)
	if err != nil {
		return index.Field{}, fmt.Errorf("%w: field %q: %w", index.ErrConfiguration, fc.Name, err)
	}
	f := index.Field{Name: fc.Name, FE: fe, Components: fc.Components}
	if fc.ExcludeBoundary {
		f.Exclude = index.BoundaryExcluded
	}
	return f, nil
}

// Options converts the enrichment settings
func (x XFEMConfig) Options() ([]xfem.Option, error) {
	p, err := xfem.ParseBoundPolicy(x.BoundPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: xfem.bound_policy: %w", index.ErrConfiguration, err)
	}
	if x.OmitBound < 0 {
		return nil, fmt.Errorf("%w: xfem.omit_bound %g", index.ErrConfiguration, x.OmitBound)
	}
	return []xfem.Option{xfem.WithOmitBound(x.OmitBound), xfem.WithBoundPolicy(p)}, nil
}

// Options converts the assembly settings
func (b BuildConfig) Options() ([]prolong.Option, error) {
	s, err := partitions.ParseStrategy(b.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: build.strategy: %w", index.ErrConfiguration, err)
	}
	if b.Workers < 1 {
		return nil, fmt.Errorf("%w: build.workers %d", index.ErrConfiguration, b.Workers)
	}
	return []prolong.Option{prolong.WithWorkers(b.Workers), prolong.WithStrategy(s)}, nil
}

// NewLogger builds a production or development zap logger at the configured level
func (l LoggingConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
