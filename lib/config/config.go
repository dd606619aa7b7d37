/*package config reads refmask config files. Config files are either ini-style
files (read with gcfg) or YAML files, chosen by the file extension. Both
describe the same three sections: the level hierarchy, the mask built on top
of it, and the report printed about the mask. See ExampleConfig.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/gcfg.v1"
	"gopkg.in/yaml.v3"

	"github.com/phil-mansfield/refmask/lib/format"
	"github.com/phil-mansfield/refmask/lib/hierarchy"
	"github.com/phil-mansfield/refmask/lib/mask"
	"github.com/phil-mansfield/refmask/lib/maskio"
)

// Config is the full contents of a config file.
type Config struct {
	Hierarchy HierarchyConfig `yaml:"hierarchy"`
	Mask MaskConfig `yaml:"mask"`
	Report ReportConfig `yaml:"report"`
}

// HierarchyConfig describes the level hierarchy. Either Dim1D lists the cells
// per axis of every level, or the levels are generated from NumLevels,
// MinDim1D, and Factor.
type HierarchyConfig struct {
	NumLevels int `yaml:"numLevels"`
	MinDim1D int `yaml:"minDim1D"`
	Factor int `yaml:"factor"`
	Dim1D []int `yaml:"dim1D"`
}

// MaskConfig describes the mask. Input optionally names a mask file to load
// tile data from.
type MaskConfig struct {
	MaskLevel int `yaml:"maskLevel"`
	MinLevel int `yaml:"minLevel"`
	MaxLevel int `yaml:"maxLevel"`
	TileLevel int `yaml:"tileLevel"`
	Input string `yaml:"input"`
}

// ReportConfig controls the census report. Levels is a sequence format string
// (see package format) selecting which levels are printed. BoxSize is in
// Mpc/h.
type ReportConfig struct {
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	Levels string `yaml:"levels"`
	BoxSize float64 `yaml:"boxSize"`
	OmegaM float64 `yaml:"omegaM"`
	H100 float64 `yaml:"h100"`
}

// ExampleConfig is an annotated ini config file.
const ExampleConfig = `# Levels of the hierarchy. Either give the number of cells per axis of every
# level as repeated Dim1D lines, or use NumLevels, MinDim1D, and Factor.
[Hierarchy]
NumLevels = 4
MinDim1D = 16
Factor = 2
# Dim1D = 16
# Dim1D = 32

[Mask]
MaskLevel = 2
MinLevel = 0
MaxLevel = 3
TileLevel = 0
# Optional mask file to read tile data from. If not set, every cell is at
# MinLevel.
# Input = mask.msk

[Report]
# text or csv
Format = text
# Defaults to stdout.
# Output = census.csv
# Sequence format selecting levels, e.g. 0..3 - 1. Defaults to every level.
# Levels = 0..3
BoxSize = 100
OmegaM = 0.3
H100 = 0.7
`

// Default returns a Config with the default report settings and no
// hierarchy or mask.
func Default() *Config {
	return &Config{
		Report: ReportConfig{ Format: "text", BoxSize: 100, OmegaM: 0.3, H100: 0.7 },
	}
}

// ReadFile reads a config file. Files ending in .yaml or .yml are read as
// YAML and everything else is read as an ini file.
func ReadFile(fileName string) (*Config, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != ".yaml" && ext != ".yml" {
		c := Default()
		if err := gcfg.ReadFileInto(c, fileName); err != nil {
			return nil, fmt.Errorf("Could not parse config file '%s': %s", fileName, err.Error())
		}
		return c, c.Validate()
	}

	b, err := os.ReadFile(fileName)
	if err != nil { return nil, err }
	c, err := ParseYAML(b)
	if err != nil {
		return nil, fmt.Errorf("Could not parse config file '%s': %s", fileName, err.Error())
	}
	return c, nil
}

// ParseINI parses the contents of an ini config file.
func ParseINI(text string) (*Config, error) {
	c := Default()
	if err := gcfg.ReadStringInto(c, text); err != nil { return nil, err }
	return c, c.Validate()
}

// ParseYAML parses the contents of a YAML config file.
func ParseYAML(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil { return nil, err }
	return c, c.Validate()
}

// Validate does all the checks that don't require building the hierarchy.
func (c *Config) Validate() error {
	h := &c.Hierarchy
	if len(h.Dim1D) == 0 {
		if h.NumLevels <= 0 {
			return fmt.Errorf("Hierarchy.NumLevels is %d, but must be positive if Hierarchy.Dim1D is not given.", h.NumLevels)
		} else if h.MinDim1D <= 0 {
			return fmt.Errorf("Hierarchy.MinDim1D is %d, but must be positive.", h.MinDim1D)
		} else if h.Factor <= 0 {
			return fmt.Errorf("Hierarchy.Factor is %d, but must be positive.", h.Factor)
		}
	} else {
		for i, d := range h.Dim1D {
			if d <= 0 {
				return fmt.Errorf("Hierarchy.Dim1D entry %d is %d, but must be positive.", i, d)
			}
		}
	}

	m := &c.Mask
	if !(0 <= m.TileLevel && m.TileLevel <= m.MinLevel &&
		m.MinLevel <= m.MaskLevel && m.MaskLevel <= m.MaxLevel) {
		return fmt.Errorf("Mask levels must satisfy 0 <= TileLevel (%d) <= MinLevel (%d) <= MaskLevel (%d) <= MaxLevel (%d).", m.TileLevel, m.MinLevel, m.MaskLevel, m.MaxLevel)
	}

	r := &c.Report
	r.Format = strings.ToLower(r.Format)
	if r.Format != "text" && r.Format != "csv" {
		return fmt.Errorf("Report.Format is '%s', but only 'text' and 'csv' are supported.", r.Format)
	} else if r.BoxSize <= 0 || r.H100 <= 0 || r.OmegaM < 0 {
		return fmt.Errorf("Report needs BoxSize > 0, H100 > 0, and OmegaM >= 0, but got %g, %g, and %g.", r.BoxSize, r.H100, r.OmegaM)
	}
	if _, err := c.ReportLevels(); err != nil {
		return fmt.Errorf("Report.Levels, '%s', is not valid. %s", r.Levels, err.Error())
	}

	return nil
}

// ReportLevels returns the levels selected by Report.Levels.
func (c *Config) ReportLevels() ([]int, error) {
	return format.ExpandLevels(c.Report.Levels, c.Mask.MinLevel, c.Mask.MaxLevel)
}

// NewHierarchy builds the hierarchy described by the config.
func (c *Config) NewHierarchy() (*hierarchy.Hierarchy, error) {
	h := &c.Hierarchy
	if len(h.Dim1D) == 0 {
		return hierarchy.NewGeometric(uint32(h.MinDim1D), uint32(h.Factor), h.NumLevels)
	}

	dims := make([]uint32, len(h.Dim1D))
	for i := range dims { dims[i] = uint32(h.Dim1D[i]) }
	return hierarchy.New(dims)
}

// NewMask builds the mask described by the config on top of h, loading tile
// data from Mask.Input if it is set.
func (c *Config) NewMask(h mask.Hierarchy) (*mask.Mask, error) {
	mc := &c.Mask
	if mc.Input == "" {
		return mask.New(h, mc.MaskLevel, mc.MinLevel, mc.MaxLevel, mc.TileLevel)
	}

	m, err := maskio.ReadFile(mc.Input, h)
	if err != nil { return nil, err }

	if m.MaskLevel() != mc.MaskLevel || m.MinLevel() != mc.MinLevel ||
		m.MaxLevel() != mc.MaxLevel || m.TileLevel() != mc.TileLevel {
		m.Release()
		return nil, fmt.Errorf("Mask file '%s' has levels (mask %d, min %d, max %d, tile %d), but the config file asks for (mask %d, min %d, max %d, tile %d).", mc.Input, m.MaskLevel(), m.MinLevel(), m.MaxLevel(), m.TileLevel(), mc.MaskLevel, mc.MinLevel, mc.MaxLevel, mc.TileLevel)
	}
	return m, nil
}
