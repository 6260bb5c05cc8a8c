// Package config holds the YAML run configuration for the moodlab CLI.
// A config file maps onto the estimator options and feature settings;
// anything left out keeps the library defaults.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantself/moodlab/dataset"
	"github.com/quantself/moodlab/features"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
	"github.com/quantself/moodlab/symreg"
)

// Config is a full run configuration.
type Config struct {
	// Seed drives both synthetic data generation and the symbolic
	// search. Negative means time-based.
	Seed int64 `yaml:"seed"`

	Data     DataConfig     `yaml:"data"`
	Features FeaturesConfig `yaml:"features"`
	Split    SplitConfig    `yaml:"split"`
	Symreg   SymregConfig   `yaml:"symreg"`
	Linear   LinearConfig   `yaml:"linear"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig selects the diary source and target column.
type DataConfig struct {
	// Path to a diary CSV. Empty means generate a synthetic diary.
	Path string `yaml:"path"`
	// Target column to model. Defaults to the wellbeing composite,
	// which is derived and attached before feature building.
	Target string `yaml:"target"`
	// Rows of synthetic diary to generate when Path is empty.
	Rows int `yaml:"rows"`
}

// FeaturesConfig mirrors the feature builder's knobs.
type FeaturesConfig struct {
	Drivers      []string `yaml:"drivers"`
	Lags         []int    `yaml:"lags"`
	Windows      []int    `yaml:"windows"`
	IncludeToday bool     `yaml:"include_today"`
	RollingStd   bool     `yaml:"rolling_std"`
	Weekday      bool     `yaml:"weekday"`
}

// SplitConfig controls the chronological holdout.
type SplitConfig struct {
	// Holdout is the trailing fraction of rows reserved for testing.
	Holdout float64 `yaml:"holdout"`
}

// SymregConfig mirrors the symbolic regressor's options.
type SymregConfig struct {
	PopulationSize    int      `yaml:"population_size"`
	Generations       int      `yaml:"generations"`
	TournamentSize    int      `yaml:"tournament_size"`
	CrossoverProb     float64  `yaml:"crossover_prob"`
	MutationProb      float64  `yaml:"mutation_prob"`
	MaxDepth          int      `yaml:"max_depth"`
	InitDepthMin      int      `yaml:"init_depth_min"`
	InitDepthMax      int      `yaml:"init_depth_max"`
	Parsimony         float64  `yaml:"parsimony"`
	Functions         []string `yaml:"functions"`
	ConstMin          float64  `yaml:"const_min"`
	ConstMax          float64  `yaml:"const_max"`
	Elitism           int      `yaml:"elitism"`
	HallOfFameSize    int      `yaml:"hall_of_fame_size"`
	Islands           int      `yaml:"islands"`
	MigrationInterval int      `yaml:"migration_interval"`
	ModelSelection    string   `yaml:"model_selection"`
	Workers           int      `yaml:"workers"`
}

// LinearConfig controls the closed-form baselines.
type LinearConfig struct {
	// RidgeAlpha adds a ridge baseline with this penalty when > 0.
	RidgeAlpha float64 `yaml:"ridge_alpha"`
}

// OutputConfig names the run artifacts. Empty paths skip the artifact.
type OutputConfig struct {
	Report   string `yaml:"report"`
	PlotsDir string `yaml:"plots_dir"`
	Model    string `yaml:"model"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration a run uses when no file is given.
// The symreg block matches the regressor's own defaults.
func Default() *Config {
	return &Config{
		Seed: -1,

		Data: DataConfig{
			Target: dataset.WellbeingColumn,
			Rows:   120,
		},

		Features: FeaturesConfig{
			Lags:         []int{1, 2, 3},
			Windows:      []int{3, 7},
			IncludeToday: true,
			Weekday:      true,
		},

		Split: SplitConfig{
			Holdout: 0.2,
		},

		Symreg: SymregConfig{
			PopulationSize:    300,
			Generations:       100,
			TournamentSize:    5,
			CrossoverProb:     0.9,
			MutationProb:      0.1,
			MaxDepth:          6,
			InitDepthMin:      2,
			InitDepthMax:      4,
			Parsimony:         0.001,
			Functions:         opNames(symreg.DefaultFunctions()),
			ConstMin:          -5,
			ConstMax:          5,
			Elitism:           1,
			HallOfFameSize:    20,
			Islands:           1,
			MigrationInterval: 10,
			ModelSelection:    symreg.SelectionBest,
			Workers:           0,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected
// so configuration typos fail loudly.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, moodErrors.Wrap(err, "failed to open config")
	}
	defer func() { _ = f.Close() }()

	return LoadReader(f)
}

// LoadReader reads a YAML configuration over the defaults.
func LoadReader(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if moodErrors.Is(err, io.EOF) {
			// An empty file means all defaults.
			return cfg, nil
		}
		return nil, moodErrors.Wrap(err, "failed to parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return moodErrors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return moodErrors.Wrap(err, "failed to write config")
	}
	return nil
}

// Validate rejects values the run would later choke on. Estimator-level
// constraints are still enforced by the estimators themselves.
func (c *Config) Validate() error {
	if c.Split.Holdout <= 0 || c.Split.Holdout >= 1 {
		return moodErrors.NewValueError("Config.Validate", "split.holdout must be in (0, 1)")
	}
	if c.Data.Path == "" && c.Data.Rows < 2 {
		return moodErrors.NewValueError("Config.Validate", "data.rows must be >= 2 for a synthetic diary")
	}
	if c.Data.Target == "" {
		return moodErrors.NewValueError("Config.Validate", "data.target must not be empty")
	}
	for _, k := range c.Features.Lags {
		if k < 1 {
			return moodErrors.NewValueError("Config.Validate",
				fmt.Sprintf("features.lags entries must be >= 1, got %d", k))
		}
	}
	for _, w := range c.Features.Windows {
		if w < 1 {
			return moodErrors.NewValueError("Config.Validate",
				fmt.Sprintf("features.windows entries must be >= 1, got %d", w))
		}
	}
	if c.Symreg.ConstMax < c.Symreg.ConstMin {
		return moodErrors.NewValueError("Config.Validate", "symreg.const_max must be >= symreg.const_min")
	}
	if _, err := parseFunctions(c.Symreg.Functions); err != nil {
		return err
	}
	if c.Linear.RidgeAlpha < 0 {
		return moodErrors.NewValueError("Config.Validate", "linear.ridge_alpha must be >= 0")
	}
	return nil
}

// Builder returns the feature builder this configuration describes.
func (c *FeaturesConfig) Builder() *features.Builder {
	return &features.Builder{
		Drivers:      append([]string(nil), c.Drivers...),
		Lags:         append([]int(nil), c.Lags...),
		Windows:      append([]int(nil), c.Windows...),
		IncludeToday: c.IncludeToday,
		RollingStd:   c.RollingStd,
		Weekday:      c.Weekday,
	}
}

// Options maps the symreg block onto regressor options. The seed is
// passed separately because it is shared run-wide.
func (c *SymregConfig) Options(seed int64) ([]symreg.Option, error) {
	funcs, err := parseFunctions(c.Functions)
	if err != nil {
		return nil, err
	}

	return []symreg.Option{
		symreg.WithPopulationSize(c.PopulationSize),
		symreg.WithGenerations(c.Generations),
		symreg.WithTournamentSize(c.TournamentSize),
		symreg.WithCrossoverProb(c.CrossoverProb),
		symreg.WithMutationProb(c.MutationProb),
		symreg.WithMaxDepth(c.MaxDepth),
		symreg.WithInitDepth(c.InitDepthMin, c.InitDepthMax),
		symreg.WithParsimony(c.Parsimony),
		symreg.WithFunctions(funcs...),
		symreg.WithConstRange(c.ConstMin, c.ConstMax),
		symreg.WithElitism(c.Elitism),
		symreg.WithHallOfFameSize(c.HallOfFameSize),
		symreg.WithIslands(c.Islands),
		symreg.WithMigrationInterval(c.MigrationInterval),
		symreg.WithModelSelection(c.ModelSelection),
		symreg.WithWorkers(c.Workers),
		symreg.WithSeed(seed),
	}, nil
}

func parseFunctions(names []string) ([]symreg.Op, error) {
	if len(names) == 0 {
		return nil, moodErrors.NewValueError("Config.Validate", "symreg.functions must not be empty")
	}
	ops := make([]symreg.Op, len(names))
	for i, name := range names {
		op, err := symreg.ParseOp(name)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

func opNames(ops []symreg.Op) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}
