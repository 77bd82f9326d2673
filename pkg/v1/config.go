package landfuse

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML run description: reference grid, lookup table,
// outputs and the priority-ordered dataset list.
type Config struct {
	Grid     GridConfig      `yaml:"grid"`
	Lookup   string          `yaml:"lookup"`
	Output   string          `yaml:"output"`
	Merged   string          `yaml:"merged,omitempty"`
	Datasets []DatasetConfig `yaml:"datasets"`
}

// GridConfig names the reference raster whose extent and resolution every
// output conforms to, and the Proj4 definition of its CRS (the ASCII grid
// format carries none).
type GridConfig struct {
	Raster string `yaml:"raster"`
	CRS    string `yaml:"crs"`
}

// DatasetConfig describes one input dataset. When Rule is omitted the
// built-in rule registered under Name is used; an unknown name without a
// rule is a configuration error.
type DatasetConfig struct {
	Name string      `yaml:"name"`
	Path string      `yaml:"path"`
	CRS  string      `yaml:"crs,omitempty"`
	Rule *RuleConfig `yaml:"rule,omitempty"`
}

// RuleConfig is the YAML form of a normalization rule. Exactly one of
// Constant or Column must be set; SecondColumn upgrades a column rule to
// the two-column variant.
type RuleConfig struct {
	Constant     string        `yaml:"constant,omitempty"`
	Prefix       string        `yaml:"prefix,omitempty"`
	Column       string        `yaml:"column,omitempty"`
	SecondColumn string        `yaml:"second_column,omitempty"`
	Missing      string        `yaml:"missing,omitempty"`
	Keep         *FilterConfig `yaml:"keep,omitempty"`
	Drop         *FilterConfig `yaml:"drop,omitempty"`
}

// FilterConfig is the YAML form of a row filter.
type FilterConfig struct {
	Column string   `yaml:"column"`
	Values []string `yaml:"values"`
}

// LoadConfig reads and validates a YAML run configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Grid.Raster == "" {
		return fmt.Errorf("grid.raster is required")
	}
	if c.Grid.CRS == "" {
		return fmt.Errorf("grid.crs is required")
	}
	if c.Lookup == "" {
		return fmt.Errorf("lookup is required")
	}
	if len(c.Datasets) == 0 {
		return fmt.Errorf("at least one dataset is required")
	}
	for _, ds := range c.Datasets {
		if ds.Name == "" {
			return fmt.Errorf("dataset with empty name")
		}
		if ds.Path == "" {
			return fmt.Errorf("dataset %q: path is required", ds.Name)
		}
		if ds.Rule == nil {
			if _, ok := defaultRule(ds.Name); !ok {
				return fmt.Errorf("dataset %q: no built-in rule and none configured", ds.Name)
			}
		} else if err := ds.Rule.validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", ds.Name, err)
		}
	}
	return nil
}

func (rc *RuleConfig) validate() error {
	if rc.Constant != "" && rc.Column != "" {
		return fmt.Errorf("rule sets both constant and column")
	}
	if rc.Constant == "" && rc.Column == "" {
		return fmt.Errorf("rule sets neither constant nor column")
	}
	if rc.SecondColumn != "" && rc.Column == "" {
		return fmt.Errorf("second_column requires column")
	}
	if rc.Keep != nil && rc.Drop != nil {
		return fmt.Errorf("rule sets both keep and drop")
	}
	return nil
}

// rule converts the YAML form to the engine rule for the named dataset.
func (rc *RuleConfig) rule(dataset string) Rule {
	r := Rule{Dataset: dataset}
	switch {
	case rc.Constant != "":
		r.Code = CodeRule{Kind: CodeConstant, Prefix: rc.Constant}
	case rc.SecondColumn != "":
		missing := rc.Missing
		if missing == "" {
			missing = "None"
		}
		r.Code = CodeRule{
			Kind:         CodePrefixTwoColumns,
			Prefix:       rc.Prefix,
			Column:       rc.Column,
			SecondColumn: rc.SecondColumn,
			MissingValue: missing,
		}
	default:
		r.Code = CodeRule{Kind: CodePrefixColumn, Prefix: rc.Prefix, Column: rc.Column}
	}
	if rc.Keep != nil {
		r.Filter = &RowFilter{Column: rc.Keep.Column, Values: rc.Keep.Values, Keep: true}
	} else if rc.Drop != nil {
		r.Filter = &RowFilter{Column: rc.Drop.Column, Values: rc.Drop.Values}
	}
	return r
}

// Pipeline builds a runnable pipeline from the configuration: the reference
// raster is read for extent and resolution, the lookup table is loaded by
// file extension, and each dataset gets its configured or built-in rule.
func (c *Config) Pipeline() (*Pipeline, error) {
	ref, err := ReadRaster(c.Grid.Raster, c.Grid.CRS)
	if err != nil {
		return nil, fmt.Errorf("reference grid %s: %w", c.Grid.Raster, err)
	}
	lookup, err := LoadLookup(c.Lookup)
	if err != nil {
		return nil, fmt.Errorf("lookup table %s: %w", c.Lookup, err)
	}

	datasets := make([]Dataset, 0, len(c.Datasets))
	for _, dc := range c.Datasets {
		rule, ok := defaultRule(dc.Name)
		if dc.Rule != nil {
			rule = dc.Rule.rule(dc.Name)
		} else if !ok {
			return nil, fmt.Errorf("dataset %q: no built-in rule and none configured", dc.Name)
		}
		datasets = append(datasets, Dataset{
			Name:   dc.Name,
			Source: GeoJSONSource{Path: dc.Path},
			CRS:    dc.CRS,
			Rule:   rule,
		})
	}
	return NewPipeline(ref.Grid, lookup, datasets)
}

// Built-in dataset rules, mirroring the national land-cover workflow this
// engine grew out of. The order is the canonical priority order.
var builtinRules = []Rule{
	{
		Dataset: "crops",
		Filter:  &RowFilter{Column: "code", Values: []string{"NEP", "TPN"}},
		Code:    CodeRule{Kind: CodePrefixColumn, Prefix: "C_", Column: "code"},
	},
	{
		Dataset: "forest",
		Filter:  &RowFilter{Column: "type", Values: []string{"Pa", "Pan", "Pb"}, Keep: true},
		Code:    CodeRule{Kind: CodePrefixColumn, Prefix: "W_", Column: "type"},
	},
	{
		Dataset: "forest-plots",
		Code: CodeRule{
			Kind:         CodePrefixTwoColumns,
			Prefix:       "F_",
			Column:       "zkg",
			SecondColumn: "region",
			MissingValue: "None",
		},
	},
	{
		Dataset: "abandoned",
		Code:    CodeRule{Kind: CodeConstant, Prefix: "A_"},
	},
	{
		Dataset: "gdr",
		Filter:  &RowFilter{Column: "code2", Values: []string{"pu0", "pu3"}},
		Code:    CodeRule{Kind: CodePrefixColumn, Prefix: "G_", Column: "code2"},
	},
	{
		Dataset: "impervious",
		Code:    CodeRule{Kind: CodePrefixColumn, Prefix: "U_", Column: "category"},
	},
}

// DefaultRules returns the built-in dataset rules in canonical priority
// order. The slice is a copy; callers may reorder or edit it.
func DefaultRules() []Rule {
	out := make([]Rule, len(builtinRules))
	copy(out, builtinRules)
	return out
}

// DefaultDatasets returns the built-in dataset names in canonical priority
// order.
func DefaultDatasets() []string {
	names := make([]string, len(builtinRules))
	for i, r := range builtinRules {
		names[i] = r.Dataset
	}
	return names
}

func defaultRule(name string) (Rule, bool) {
	for _, r := range builtinRules {
		if r.Dataset == name {
			return r, true
		}
	}
	return Rule{}, false
}
