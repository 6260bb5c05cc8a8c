// Package evaluation compares regression models on chronological
// holdouts. Every model in a comparison is fit on the same train block
// and scored on the same held-out block, so the report's error columns
// are directly comparable. A model that fails to fit or predict is
// reported with its error instead of being dropped from the results.
package evaluation

import (
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/core/model"
	"github.com/quantself/moodlab/metrics"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
	"github.com/quantself/moodlab/pkg/log"
	"github.com/quantself/moodlab/symreg"
)

// Model is an estimator with a display name for report rows.
type Model interface {
	model.Estimator
	Name() string
}

// namedModel attaches a report name to a plain estimator.
type namedModel struct {
	model.Estimator
	name string
}

func (nm *namedModel) Name() string { return nm.name }

// Named wraps an estimator so it can appear in a comparison under the
// given name.
func Named(name string, est model.Estimator) Model {
	return &namedModel{Estimator: est, name: name}
}

// unwrap returns the estimator behind a Named wrapper. Interface
// assertions for optional surfaces (equations, Pareto frontiers) must
// run against the concrete estimator, not the wrapper.
func unwrap(m Model) interface{} {
	if nm, ok := m.(*namedModel); ok {
		return nm.Estimator
	}
	return m
}

// Optional model surfaces. Estimators that expose them get extra
// report columns; plain estimators are scored on errors alone.
type equationModel interface {
	Equation(names []string) (string, error)
}

type programModel interface {
	SelectedProgram() (*symreg.Program, error)
}

type paretoModel interface {
	ParetoFront() ([]symreg.ParetoPoint, error)
}

// Comparison fits a set of models on one split and scores them all.
type Comparison struct {
	models       []Model
	featureNames []string
	logger       log.Logger
}

// NewComparison creates a comparison over the given models.
func NewComparison(models ...Model) *Comparison {
	c := &Comparison{models: models}

	c.logger = log.GetLoggerWithName("evaluation").With(
		log.ComponentKey, "evaluation",
	)

	return c
}

// WithFeatureNames sets the column names used to render equations in
// the report. Returns the comparison for chaining.
func (c *Comparison) WithFeatureNames(names ...string) *Comparison {
	c.featureNames = append([]string(nil), names...)
	return c
}

// Run fits every model on the split's train block and scores it on
// both blocks. Models run concurrently; each one sees only XTrain and
// YTrain during fitting. Per-model failures land in the result row's
// Err field and never abort the run.
func (c *Comparison) Run(sp *Split) (_ *Report, err error) {
	defer moodErrors.Recover(&err, "Comparison.Run")

	start := time.Now()

	if len(c.models) == 0 {
		return nil, moodErrors.NewValueError("Comparison.Run", "no models to compare")
	}
	if sp == nil || sp.XTrain == nil || sp.XTest == nil {
		return nil, moodErrors.NewModelError("Comparison.Run", "empty split", moodErrors.ErrEmptyData)
	}

	_, nFeatures := sp.XTrain.Dims()
	rep := newReport(sp, nFeatures, len(c.models))

	if c.logger != nil {
		c.logger.Info("Comparison started",
			"models", len(c.models),
			log.SamplesKey, sp.TrainRows(),
			log.FeaturesKey, nFeatures,
		)
	}

	g := new(errgroup.Group)
	for i, m := range c.models {
		g.Go(func() error {
			rep.Results[i] = c.evaluateModel(m, sp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.collectPareto(rep)

	if c.logger != nil {
		c.logger.Info("Comparison completed",
			"models", len(c.models),
			"run_id", rep.RunID,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}

	return rep, nil
}

// evaluateModel fits one model and fills its report row. Failures,
// including panics inside a model's Fit or Predict, are captured in
// the row's Err field.
func (c *Comparison) evaluateModel(m Model, sp *Split) (res Result) {
	res.Name = m.Name()

	start := time.Now()
	var err error
	defer func() {
		res.DurationMs = time.Since(start).Milliseconds()
		if err != nil {
			res.Err = err.Error()
		}
	}()
	defer moodErrors.Recover(&err, "Comparison.evaluateModel")

	if err = m.Fit(sp.XTrain, sp.YTrain); err != nil {
		err = moodErrors.Wrap(err, "fit failed")
		return res
	}

	var trainPred, testPred *mat.VecDense
	if trainPred, err = predictVec(m, sp.XTrain); err != nil {
		err = moodErrors.Wrap(err, "train prediction failed")
		return res
	}
	if testPred, err = predictVec(m, sp.XTest); err != nil {
		err = moodErrors.Wrap(err, "test prediction failed")
		return res
	}

	if res.TrainMSE, err = metrics.MSE(sp.YTrain, trainPred); err != nil {
		return res
	}
	if res.TestMSE, err = metrics.MSE(sp.YTest, testPred); err != nil {
		return res
	}
	if res.TrainRMSE, err = metrics.RMSE(sp.YTrain, trainPred); err != nil {
		return res
	}
	if res.TestRMSE, err = metrics.RMSE(sp.YTest, testPred); err != nil {
		return res
	}
	if res.TrainMAE, err = metrics.MAE(sp.YTrain, trainPred); err != nil {
		return res
	}
	if res.TestMAE, err = metrics.MAE(sp.YTest, testPred); err != nil {
		return res
	}

	// R2 is undefined on a zero-variance block; record 0 for that
	// block instead of failing the whole row.
	res.TrainR2 = r2OrZero(sp.YTrain, trainPred)
	res.TestR2 = r2OrZero(sp.YTest, testPred)

	if eq, ok := unwrap(m).(equationModel); ok {
		if s, eqErr := eq.Equation(c.featureNames); eqErr == nil {
			res.Equation = s
		}
	}
	if sel, ok := unwrap(m).(programModel); ok {
		if p, selErr := sel.SelectedProgram(); selErr == nil {
			res.Complexity = p.Complexity()
		}
	}

	return res
}

// collectPareto copies the Pareto frontier of the first model that
// exposes one into the report.
func (c *Comparison) collectPareto(rep *Report) {
	for _, m := range c.models {
		pm, ok := unwrap(m).(paretoModel)
		if !ok {
			continue
		}
		pts, err := pm.ParetoFront()
		if err != nil {
			continue
		}
		for _, pt := range pts {
			rep.Pareto = append(rep.Pareto, ParetoEntry{
				Complexity: pt.Complexity,
				MSE:        pt.MSE,
				Equation:   pt.Program.String(c.featureNames),
			})
		}
		return
	}
}

// WalkForward scores one model across rolling-origin folds. The model
// is refit from scratch on every fold's training window, then scored
// on the rows immediately after it. Any fold failure aborts the walk;
// partial scores would not be comparable across models.
func WalkForward(m Model, X, y mat.Matrix, folds []Fold) ([]FoldScore, error) {
	if len(folds) == 0 {
		return nil, moodErrors.NewValueError("WalkForward", "no folds")
	}

	scores := make([]FoldScore, 0, len(folds))
	for i, f := range folds {
		sp, err := f.Split(X, y)
		if err != nil {
			return nil, moodErrors.Wrapf(err, "fold %d", i)
		}
		if err := m.Fit(sp.XTrain, sp.YTrain); err != nil {
			return nil, moodErrors.Wrapf(err, "fold %d: fit failed", i)
		}
		pred, err := predictVec(m, sp.XTest)
		if err != nil {
			return nil, moodErrors.Wrapf(err, "fold %d: prediction failed", i)
		}

		var fs FoldScore
		fs.Fold = f
		if fs.TestMSE, err = metrics.MSE(sp.YTest, pred); err != nil {
			return nil, moodErrors.Wrapf(err, "fold %d", i)
		}
		if fs.TestRMSE, err = metrics.RMSE(sp.YTest, pred); err != nil {
			return nil, moodErrors.Wrapf(err, "fold %d", i)
		}
		if fs.TestMAE, err = metrics.MAE(sp.YTest, pred); err != nil {
			return nil, moodErrors.Wrapf(err, "fold %d", i)
		}
		scores = append(scores, fs)
	}
	return scores, nil
}

// FoldScore is one model's held-out error on a single fold.
type FoldScore struct {
	Fold     Fold    `json:"fold"`
	TestMSE  float64 `json:"test_mse"`
	TestRMSE float64 `json:"test_rmse"`
	TestMAE  float64 `json:"test_mae"`
}

// predictVec runs Predict and narrows the result to a column vector.
func predictVec(p model.Predictor, X mat.Matrix) (*mat.VecDense, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return nil, err
	}
	if v, ok := pred.(*mat.VecDense); ok {
		return v, nil
	}
	r, cols := pred.Dims()
	if cols != 1 {
		return nil, moodErrors.NewValueError("predictVec", "predictions must form a single column")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, pred.At(i, 0))
	}
	return v, nil
}

func r2OrZero(yTrue, yPred *mat.VecDense) float64 {
	r2, err := metrics.R2Score(yTrue, yPred)
	if err != nil {
		return 0
	}
	return r2
}
