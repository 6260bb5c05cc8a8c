// Package decomposition provides principal component analysis and the
// wellbeing composite built on top of it.
//
// This package implements dimensionality reduction for the mood pipeline:
//
//   - PCA: principal component analysis over gonum's stat.PC
//   - WellbeingIndex: the first principal component of the seven
//     standardized mood items, sign-oriented so that higher is better
//
// Example usage:
//
//	pca := decomposition.NewPCA(2)
//	err := pca.Fit(X)
//	if err != nil {
//		log.Fatal(err)
//	}
//	scores, err := pca.Transform(X)
//
// All transformers follow the standard estimator interface with
// Fit/Transform methods and integrate with preprocessing pipelines.
package decomposition

import (
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/quantself/moodlab/core/model"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
	"github.com/quantself/moodlab/pkg/log"
)

// PCA is a principal component analysis transformer.
type PCA struct {
	State       *model.StateManager // State manager (composition instead of embedding) - Public for gob encoding
	NComponents int                 // Number of components to keep (0 = all)

	components *mat.Dense // Component directions, d x k, columns are components
	mean       []float64  // Per-feature training mean
	vars       []float64  // Variance explained per kept component
	varsRatio  []float64  // Fraction of total variance per kept component
	logger     log.Logger // Logger instance
}

// NewPCA creates a PCA transformer keeping nComponents components.
// nComponents <= 0 keeps every component.
func NewPCA(nComponents int) *PCA {
	p := &PCA{
		State:       model.NewStateManager(),
		NComponents: nComponents,
	}

	p.logger = log.GetLoggerWithName("decomposition").With(
		log.ModelNameKey, "PCA",
		log.ComponentKey, "decomposition",
	)

	return p
}

// Fit learns the principal components of X.
//
// Rows of X are observations. Fit centers the data internally; callers
// who also want unit variance should standardize first (the wellbeing
// composite does). Requires at least two rows and no NaN cells.
func (p *PCA) Fit(X mat.Matrix) (err error) {
	defer moodErrors.Recover(&err, "PCA.Fit")

	startTime := time.Now()
	r, c := X.Dims()

	if p.logger != nil {
		p.logger.Info("Training started",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	if r == 0 || c == 0 {
		return moodErrors.NewModelError("PCA.Fit", "empty data", moodErrors.ErrEmptyData)
	}
	if r < 2 {
		return moodErrors.NewValueError("PCA.Fit", "need at least 2 samples")
	}

	k := p.NComponents
	maxK := min(r, c)
	if k <= 0 {
		k = maxK
	}
	if k > maxK {
		return moodErrors.NewDimensionError("PCA.Fit", maxK, k, 1)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return moodErrors.NewModelError("PCA.Fit", "decomposition failed", moodErrors.ErrSingularMatrix)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	allVars := pc.VarsTo(nil)

	total := 0.0
	for _, v := range allVars {
		total += v
	}

	p.components = mat.DenseCopyOf(vecs.Slice(0, c, 0, k))
	p.vars = append([]float64(nil), allVars[:k]...)
	p.varsRatio = make([]float64, k)
	if total > 0 {
		for i, v := range p.vars {
			p.varsRatio[i] = v / total
		}
	}

	p.mean = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		p.mean[j] = stat.Mean(col, nil)
	}

	p.State.SetDimensions(c, r)
	p.State.SetFitted()

	if p.logger != nil {
		p.logger.Info("Training completed",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, r,
			log.FeaturesKey, c,
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
		)
	}

	return nil
}

// Transform projects X onto the kept components, returning an
// n x NComponents score matrix.
func (p *PCA) Transform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer moodErrors.Recover(&err, "PCA.Transform")

	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("PCA", "Transform")
	}

	r, c := X.Dims()
	d, k := p.components.Dims()
	if c != d {
		return nil, moodErrors.NewDimensionError("PCA.Transform", d, c, 1)
	}

	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, X.At(i, j)-p.mean[j])
		}
	}

	scores := mat.NewDense(r, k, nil)
	scores.Mul(centered, p.components)
	return scores, nil
}

// FitTransform fits the transformer and returns the training scores.
func (p *PCA) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// InverseTransform reconstructs data from component scores. With fewer
// components than features the reconstruction is the projection onto the
// kept subspace, not the original data.
func (p *PCA) InverseTransform(scores mat.Matrix) (_ *mat.Dense, err error) {
	defer moodErrors.Recover(&err, "PCA.InverseTransform")

	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("PCA", "InverseTransform")
	}

	r, c := scores.Dims()
	d, k := p.components.Dims()
	if c != k {
		return nil, moodErrors.NewDimensionError("PCA.InverseTransform", k, c, 1)
	}

	out := mat.NewDense(r, d, nil)
	out.Mul(scores, p.components.T())
	for i := 0; i < r; i++ {
		for j := 0; j < d; j++ {
			out.Set(i, j, out.At(i, j)+p.mean[j])
		}
	}
	return out, nil
}

// Components returns the learned directions as a d x k matrix whose
// columns are unit-length components, ordered by explained variance.
func (p *PCA) Components() (*mat.Dense, error) {
	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("PCA", "Components")
	}
	return mat.DenseCopyOf(p.components), nil
}

// Mean returns the per-feature training mean.
func (p *PCA) Mean() ([]float64, error) {
	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("PCA", "Mean")
	}
	return append([]float64(nil), p.mean...), nil
}

// ExplainedVariance returns the variance captured by each kept component.
func (p *PCA) ExplainedVariance() ([]float64, error) {
	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("PCA", "ExplainedVariance")
	}
	return append([]float64(nil), p.vars...), nil
}

// ExplainedVarianceRatio returns the fraction of total variance captured
// by each kept component.
func (p *PCA) ExplainedVarianceRatio() ([]float64, error) {
	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("PCA", "ExplainedVarianceRatio")
	}
	return append([]float64(nil), p.varsRatio...), nil
}
