package decomposition

import (
	"fmt"
	"time"

	"github.com/quantself/moodlab/core/model"
	"github.com/quantself/moodlab/dataset"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
	"github.com/quantself/moodlab/pkg/log"
	"github.com/quantself/moodlab/preprocessing"
)

// WellbeingIndex condenses the seven mood items into one composite
// response: standardize each item, project onto the first principal
// component and orient the sign so that the loading on happiness is
// positive. Higher scores mean a better day regardless of the SVD's
// arbitrary sign choice.
type WellbeingIndex struct {
	State *model.StateManager // State manager (composition instead of embedding) - Public for gob encoding

	scaler   *preprocessing.StandardScaler
	pca      *PCA
	sign     float64
	loadings map[string]float64
	ratio    float64
	scores   []float64
	dates    []time.Time
	logger   log.Logger
}

// NewWellbeingIndex creates an unfitted wellbeing composite.
func NewWellbeingIndex() *WellbeingIndex {
	w := &WellbeingIndex{
		State:  model.NewStateManager(),
		scaler: preprocessing.NewStandardScalerDefault(),
		pca:    NewPCA(1),
	}

	w.logger = log.GetLoggerWithName("decomposition").With(
		log.ModelNameKey, "WellbeingIndex",
		log.ComponentKey, "decomposition",
	)

	return w
}

// Fit learns the composite from a diary. All seven mood items must be
// present and at least three rows must be complete; rows with a missing
// item are excluded from the fit.
func (w *WellbeingIndex) Fit(d *dataset.Diary) (err error) {
	defer moodErrors.Recover(&err, "WellbeingIndex.Fit")

	startTime := time.Now()

	if d == nil || d.Len() == 0 {
		return moodErrors.NewModelError("WellbeingIndex.Fit", "empty diary", moodErrors.ErrEmptyData)
	}
	for _, col := range dataset.MoodColumns {
		if !d.Has(col) {
			return moodErrors.NewValueError("WellbeingIndex.Fit",
				fmt.Sprintf("diary is missing mood column %q", col))
		}
	}

	complete, err := d.DropIncomplete(dataset.MoodColumns...)
	if err != nil {
		return err
	}
	if complete.Len() < 3 {
		return moodErrors.NewValueError("WellbeingIndex.Fit",
			fmt.Sprintf("need at least 3 complete rows, got %d", complete.Len()))
	}

	if w.logger != nil {
		w.logger.Info("Training started",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, complete.Len(),
			log.FeaturesKey, len(dataset.MoodColumns),
		)
	}

	X, err := complete.Matrix(dataset.MoodColumns...)
	if err != nil {
		return err
	}

	scaled, err := w.scaler.FitTransform(X)
	if err != nil {
		return moodErrors.Wrap(err, "failed to standardize mood items")
	}

	scores, err := w.pca.FitTransform(scaled)
	if err != nil {
		return moodErrors.Wrap(err, "failed to extract first component")
	}

	components, err := w.pca.Components()
	if err != nil {
		return err
	}

	// Orient so the happiness loading is positive; MoodColumns[0] is
	// happiness.
	w.sign = 1.0
	if components.At(0, 0) < 0 {
		w.sign = -1.0
	}

	w.loadings = make(map[string]float64, len(dataset.MoodColumns))
	for i, col := range dataset.MoodColumns {
		w.loadings[col] = w.sign * components.At(i, 0)
	}

	w.scores = make([]float64, complete.Len())
	for i := range w.scores {
		w.scores[i] = w.sign * scores.At(i, 0)
	}
	w.dates = append([]time.Time(nil), complete.Dates...)

	ratios, err := w.pca.ExplainedVarianceRatio()
	if err != nil {
		return err
	}
	w.ratio = ratios[0]

	w.State.SetDimensions(len(dataset.MoodColumns), complete.Len())
	w.State.SetFitted()

	if w.logger != nil {
		w.logger.Info("Training completed",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, complete.Len(),
			log.FeaturesKey, len(dataset.MoodColumns),
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
		)
	}

	return nil
}

// Scores returns the composite value for every complete row seen during
// Fit, in date order.
func (w *WellbeingIndex) Scores() ([]float64, error) {
	if !w.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("WellbeingIndex", "Scores")
	}
	return append([]float64(nil), w.scores...), nil
}

// Dates returns the dates of the rows the composite was fit on, aligned
// with Scores.
func (w *WellbeingIndex) Dates() ([]time.Time, error) {
	if !w.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("WellbeingIndex", "Dates")
	}
	return append([]time.Time(nil), w.dates...), nil
}

// Transform scores every row of a diary with the statistics learned
// during Fit. Rows with a missing mood item come back as NaN. Fitting
// on a training slice and transforming the full diary keeps holdout
// rows out of the composite's statistics.
func (w *WellbeingIndex) Transform(d *dataset.Diary) (_ []float64, err error) {
	defer moodErrors.Recover(&err, "WellbeingIndex.Transform")

	if !w.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("WellbeingIndex", "Transform")
	}
	if d == nil || d.Len() == 0 {
		return nil, moodErrors.NewModelError("WellbeingIndex.Transform", "empty diary", moodErrors.ErrEmptyData)
	}
	for _, col := range dataset.MoodColumns {
		if !d.Has(col) {
			return nil, moodErrors.NewValueError("WellbeingIndex.Transform",
				fmt.Sprintf("diary is missing mood column %q", col))
		}
	}

	X, err := d.Matrix(dataset.MoodColumns...)
	if err != nil {
		return nil, err
	}

	scaled, err := w.scaler.Transform(X)
	if err != nil {
		return nil, moodErrors.Wrap(err, "failed to standardize mood items")
	}

	proj, err := w.pca.Transform(scaled)
	if err != nil {
		return nil, moodErrors.Wrap(err, "failed to project onto the component")
	}

	values := make([]float64, d.Len())
	for i := range values {
		values[i] = w.sign * proj.At(i, 0)
	}
	return values, nil
}

// Attach adds the composite to the diary as the reserved wellbeing
// column via Transform, so rows outside the fitted slice are scored
// too. Rows with a missing mood item get NaN.
func (w *WellbeingIndex) Attach(d *dataset.Diary) (err error) {
	defer moodErrors.Recover(&err, "WellbeingIndex.Attach")

	values, err := w.Transform(d)
	if err != nil {
		return err
	}
	return d.AddColumn(dataset.WellbeingColumn, values)
}

// Loadings returns each mood item's weight on the composite, on the
// standardized scale. Positive-valence items load positive, irritability
// and anxiety typically negative.
func (w *WellbeingIndex) Loadings() (map[string]float64, error) {
	if !w.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("WellbeingIndex", "Loadings")
	}
	out := make(map[string]float64, len(w.loadings))
	for k, v := range w.loadings {
		out[k] = v
	}
	return out, nil
}

// ExplainedVarianceRatio returns the share of total standardized mood
// variance the composite captures.
func (w *WellbeingIndex) ExplainedVarianceRatio() (float64, error) {
	if !w.State.IsFitted() {
		return 0, moodErrors.NewNotFittedError("WellbeingIndex", "ExplainedVarianceRatio")
	}
	return w.ratio, nil
}
