package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/dataset"
	"github.com/quantself/moodlab/decomposition"
	"github.com/quantself/moodlab/evaluation"
	"github.com/quantself/moodlab/linear"
	"github.com/quantself/moodlab/pkg/config"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
	"github.com/quantself/moodlab/pkg/log"
	"github.com/quantself/moodlab/plot"
	"github.com/quantself/moodlab/symreg"
)

var (
	runData        string
	runSynth       bool
	runTarget      string
	runRows        int
	runHoldout     float64
	runLags        []int
	runWindows     []int
	runWeekday     bool
	runPopulation  int
	runGenerations int
	runIslands     int
	runWorkers     int
	runReport      string
	runPlots       string
	runSaveModel   string
	runRidgeAlpha  float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fit equations to a diary and compare them against linear baselines",
	Long: `run executes the full analysis: load a diary CSV (or generate a
synthetic one), attach the wellbeing composite, build lagged and rolling
driver features, split chronologically and evolve a symbolic regressor
next to linear baselines. The comparison table goes to stdout; report
JSON, plots and the fitted model are written when their flags or config
entries are set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		rep, err := runAnalysis(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rep.String())
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runData, "data", "", "diary CSV path; empty generates a synthetic diary")
	f.BoolVar(&runSynth, "synth", false, "ignore --data and generate a synthetic diary")
	f.StringVar(&runTarget, "target", dataset.WellbeingColumn, "column to model")
	f.IntVar(&runRows, "rows", 120, "rows for the synthetic diary")
	f.Float64Var(&runHoldout, "holdout", 0.2, "fraction of trailing rows held out for testing")
	f.IntSliceVar(&runLags, "lags", []int{1, 2, 3}, "driver lags in days")
	f.IntSliceVar(&runWindows, "windows", []int{3, 7}, "rolling mean windows in days")
	f.BoolVar(&runWeekday, "weekday", true, "include weekday indicator features")
	f.IntVar(&runPopulation, "population", 300, "programs per island")
	f.IntVar(&runGenerations, "generations", 100, "generations to evolve")
	f.IntVar(&runIslands, "islands", 1, "independent populations exchanging migrants")
	f.IntVar(&runWorkers, "workers", 0, "parallel fitness workers; 0 uses all CPUs")
	f.StringVar(&runReport, "report", "", "write the comparison report JSON here")
	f.StringVar(&runPlots, "plots", "", "write PNG charts into this directory")
	f.StringVar(&runSaveModel, "save-model", "", "write the fitted symbolic model JSON here")
	f.Float64Var(&runRidgeAlpha, "ridge-alpha", 0, "add a ridge baseline with this penalty when > 0")
}

// applyRunFlags copies every flag the user actually set onto the
// configuration, so YAML entries survive unless overridden.
func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("data") {
		c.Data.Path = runData
	}
	if runSynth {
		c.Data.Path = ""
	}
	if f.Changed("target") {
		c.Data.Target = runTarget
	}
	if f.Changed("rows") {
		c.Data.Rows = runRows
	}
	if f.Changed("holdout") {
		c.Split.Holdout = runHoldout
	}
	if f.Changed("lags") {
		c.Features.Lags = runLags
	}
	if f.Changed("windows") {
		c.Features.Windows = runWindows
	}
	if f.Changed("weekday") {
		c.Features.Weekday = runWeekday
	}
	if f.Changed("population") {
		c.Symreg.PopulationSize = runPopulation
	}
	if f.Changed("generations") {
		c.Symreg.Generations = runGenerations
	}
	if f.Changed("islands") {
		c.Symreg.Islands = runIslands
	}
	if f.Changed("workers") {
		c.Symreg.Workers = runWorkers
	}
	if f.Changed("report") {
		c.Output.Report = runReport
	}
	if f.Changed("plots") {
		c.Output.PlotsDir = runPlots
	}
	if f.Changed("save-model") {
		c.Output.Model = runSaveModel
	}
	if f.Changed("ridge-alpha") {
		c.Linear.RidgeAlpha = runRidgeAlpha
	}
}

// runAnalysis executes the configured pipeline and returns the
// comparison report. File outputs named in cfg.Output are written as a
// side effect.
func runAnalysis(cfg *config.Config) (*evaluation.Report, error) {
	logger := log.GetLoggerWithName("cmd").With(log.ComponentKey, "cmd")
	seed := resolveSeed(cfg.Seed)

	diary, err := loadDiary(cfg, seed, logger)
	if err != nil {
		return nil, err
	}
	if err := attachTarget(cfg, diary); err != nil {
		return nil, err
	}

	fm, err := cfg.Features.Builder().Build(diary, cfg.Data.Target)
	if err != nil {
		return nil, err
	}

	sp, err := evaluation.SplitFeatures(fm, cfg.Split.Holdout)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.Symreg.Options(seed)
	if err != nil {
		return nil, err
	}
	opts = append(opts, symreg.WithFeatureNames(fm.Names...))
	gp := symreg.NewRegressor(opts...)

	ols := linear.NewLinearRegression()
	ols.FeatureNames = append([]string(nil), fm.Names...)

	models := []evaluation.Model{
		evaluation.Named("symbolic", gp),
		evaluation.Named("linear", ols),
	}
	if cfg.Linear.RidgeAlpha > 0 {
		rg := linear.NewRidge(cfg.Linear.RidgeAlpha)
		rg.FeatureNames = append([]string(nil), fm.Names...)
		models = append(models, evaluation.Named("ridge", rg))
	}

	rep, err := evaluation.NewComparison(models...).WithFeatureNames(fm.Names...).Run(sp)
	if err != nil {
		return nil, err
	}

	if cfg.Output.Report != "" {
		if err := writeReport(rep, cfg.Output.Report); err != nil {
			return nil, err
		}
		logger.Info("Report written", "path", cfg.Output.Report)
	}
	if cfg.Output.PlotsDir != "" {
		if err := writePlots(cfg.Output.PlotsDir, diary, cfg.Data.Target, sp, models, rep); err != nil {
			return nil, err
		}
		logger.Info("Plots written", "dir", cfg.Output.PlotsDir)
	}
	if cfg.Output.Model != "" {
		if gp.IsFitted() {
			if err := gp.SaveJSON(cfg.Output.Model); err != nil {
				return nil, err
			}
			logger.Info("Model written", "path", cfg.Output.Model)
		} else {
			logger.Warn("Skipping model export, the symbolic regressor did not fit")
		}
	}

	return rep, nil
}

func loadDiary(cfg *config.Config, seed int64, logger log.Logger) (*dataset.Diary, error) {
	if cfg.Data.Path != "" {
		d, err := dataset.Load(cfg.Data.Path, dataset.DefaultLoadOptions())
		if err != nil {
			return nil, err
		}
		logger.Info("Diary loaded", "path", cfg.Data.Path, log.SamplesKey, d.Len())
		return d, nil
	}

	d := dataset.Synthetic(cfg.Data.Rows, uint64(seed))
	logger.Info("Synthetic diary generated", log.SamplesKey, d.Len(), "seed", seed)
	return d, nil
}

// attachTarget makes sure the modeling target exists. The wellbeing
// composite is fit on the training slice only, so holdout rows never
// shape its statistics.
func attachTarget(cfg *config.Config, d *dataset.Diary) error {
	if d.Has(cfg.Data.Target) {
		return nil
	}
	if cfg.Data.Target != dataset.WellbeingColumn {
		return moodErrors.NewValueError("run",
			fmt.Sprintf("diary has no column %q", cfg.Data.Target))
	}

	train, _, err := evaluation.SplitDiary(d, cfg.Split.Holdout)
	if err != nil {
		return err
	}
	w := decomposition.NewWellbeingIndex()
	if err := w.Fit(train); err != nil {
		return err
	}
	return w.Attach(d)
}

func writeReport(rep *evaluation.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return moodErrors.Wrap(err, "failed to create report file")
	}
	defer f.Close()
	return rep.WriteJSON(f)
}

func writePlots(dir string, d *dataset.Diary, target string, sp *evaluation.Split, models []evaluation.Model, rep *evaluation.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return moodErrors.Wrap(err, "failed to create plots directory")
	}

	values, err := d.Column(target)
	if err != nil {
		return err
	}
	series := []plot.Series{{Name: target, Values: values}}
	if _, err := plot.Timeline(d.Dates, series, filepath.Join(dir, "timeline.png")); err != nil {
		return err
	}

	if best, err := rep.Best(); err == nil {
		if m := modelByName(models, best.Name); m != nil {
			raw, err := m.Predict(sp.XTest)
			if err != nil {
				return err
			}
			yhat := mat.NewVecDense(sp.TestRows(), mat.Col(nil, 0, raw))
			if _, err := plot.PredVsActual(sp.YTest, yhat, filepath.Join(dir, "pred_vs_actual.png")); err != nil {
				return err
			}
		}
	}

	if len(rep.Pareto) > 0 {
		if _, err := plot.Pareto(rep.Pareto, filepath.Join(dir, "pareto.png")); err != nil {
			return err
		}
	}
	return nil
}

func modelByName(models []evaluation.Model, name string) evaluation.Model {
	for _, m := range models {
		if m.Name() == name {
			return m
		}
	}
	return nil
}
