package linear

import (
	"fmt"
	"io"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/core/model"
	"github.com/quantself/moodlab/core/parallel"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
	"github.com/quantself/moodlab/pkg/log"
)

// Ridge is an L2-regularized linear regression model. The lagged and
// rolling driver features are strongly correlated, which makes plain
// least squares unstable; the ridge penalty keeps the coefficients
// bounded. The intercept is not penalized.
type Ridge struct {
	State        *model.StateManager // State manager (composition instead of embedding) - Public for gob encoding
	Weights      *mat.VecDense       // Model weights (coefficients)
	Intercept    float64             // Model intercept
	NFeatures    int                 // Number of features
	Alpha        float64             // L2 penalty strength
	FeatureNames []string            // Optional feature names, aligned with Weights
	logger       log.Logger          // Logger instance
}

// NewRidge creates a ridge regression model with the given penalty
// strength. alpha = 0 reduces to ordinary least squares.
func NewRidge(alpha float64) *Ridge {
	rg := &Ridge{
		State: model.NewStateManager(),
		Alpha: alpha,
	}

	rg.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "Ridge",
		log.ComponentKey, "linear",
	)

	return rg
}

// Fit trains the model by solving (X^T * X + alpha*I)w = X^T * y, with
// the intercept row of the penalty zeroed so only feature weights
// shrink.
func (rg *Ridge) Fit(X, y mat.Matrix) (err error) {
	defer moodErrors.Recover(&err, "Ridge.Fit")

	startTime := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()

	if rg.logger != nil {
		rg.logger.Info("Training started",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	if r == 0 || c == 0 {
		return moodErrors.NewModelError("Ridge.Fit", "empty data", moodErrors.ErrEmptyData)
	}
	if ry != r {
		return moodErrors.NewDimensionError("Ridge.Fit", r, ry, 0)
	}
	if cy != 1 {
		return moodErrors.NewValueError("Ridge.Fit", "y must be a column vector")
	}
	if rg.Alpha < 0 {
		return moodErrors.NewValueError("Ridge.Fit", "alpha must be non-negative")
	}

	rg.NFeatures = c

	XWithIntercept := mat.NewDense(r, c+1, nil)

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			XWithIntercept.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				XWithIntercept.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var XT mat.Dense
	XT.CloneFrom(XWithIntercept.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XWithIntercept)

	// Add the penalty to the diagonal, skipping the intercept term.
	for j := 1; j <= c; j++ {
		XTX.Set(j, j, XTX.At(j, j)+rg.Alpha)
	}

	var XTXInv mat.Dense
	err = XTXInv.Inverse(&XTX)
	if err != nil {
		return moodErrors.NewModelError("Ridge.Fit", "singular matrix", moodErrors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	rg.Intercept = weights.AtVec(0)
	rg.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		rg.Weights.SetVec(i, weights.AtVec(i+1))
	}

	rg.State.SetFitted()
	rg.State.SetDimensions(rg.NFeatures, r)

	if rg.logger != nil {
		rg.logger.Info("Training completed",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	return nil
}

// Predict computes y = X * weights + intercept for the fitted model.
func (rg *Ridge) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "Ridge.Predict")
	if !rg.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("Ridge", "Predict")
	}

	r, c := X.Dims()
	if c != rg.NFeatures {
		return nil, moodErrors.NewDimensionError("Ridge.Predict", rg.NFeatures, c, 1)
	}

	if rg.logger != nil {
		rg.logger.Debug("Prediction started",
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseInference,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := rg.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * rg.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}

	if rg.logger != nil {
		rg.logger.Debug("Prediction completed",
			log.OperationKey, log.OperationPredict,
			log.PredsKey, r,
		)
	}

	return predictions, nil
}

// GetWeights returns the learned weights (coefficients)
func (rg *Ridge) GetWeights() []float64 {
	if rg.Weights == nil {
		return nil
	}

	weights := make([]float64, rg.Weights.Len())
	for i := 0; i < rg.Weights.Len(); i++ {
		weights[i] = rg.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept returns the learned intercept
func (rg *Ridge) GetIntercept() float64 {
	if !rg.State.IsFitted() {
		return 0
	}
	return rg.Intercept
}

// Score calculates the coefficient of determination (R²) of the model
func (rg *Ridge) Score(X, y mat.Matrix) (_ float64, err error) {
	defer moodErrors.Recover(&err, "Ridge.Score")
	if !rg.State.IsFitted() {
		return 0, moodErrors.NewNotFittedError("Ridge", "Score")
	}

	yPred, err := rg.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()

	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		yPredVal := yPred.At(i, 0)

		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - yPredVal) * (yTrue - yPredVal)
	}

	if tss == 0 {
		return 0, fmt.Errorf("total sum of squares is zero")
	}

	return 1 - rss/tss, nil
}

// LoadJSON loads a fitted model from a JSON model document file
func (rg *Ridge) LoadJSON(filename string) (err error) {
	defer moodErrors.Recover(&err, "Ridge.LoadJSON")
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return rg.LoadJSONReader(file)
}

// LoadJSONReader loads a fitted model from a JSON model document
func (rg *Ridge) LoadJSONReader(r io.Reader) (err error) {
	defer moodErrors.Recover(&err, "Ridge.LoadJSONReader")
	doc, err := model.LoadDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("failed to load model document: %w", err)
	}

	params, err := model.LoadLinearParams(doc)
	if err != nil {
		return fmt.Errorf("failed to load linear params: %w", err)
	}

	rg.NFeatures = params.NFeatures
	rg.Intercept = params.Intercept
	rg.Alpha = params.Alpha
	rg.FeatureNames = params.FeatureNames
	rg.Weights = mat.NewVecDense(len(params.Coefficients), params.Coefficients)

	rg.State.SetFitted()
	// Note: sample count is not available when loading from file
	rg.State.SetDimensions(rg.NFeatures, 0)

	return nil
}

// SaveJSON exports the model as a JSON model document
func (rg *Ridge) SaveJSON(filename string) (err error) {
	defer moodErrors.Recover(&err, "Ridge.SaveJSON")
	if !rg.State.IsFitted() {
		return moodErrors.NewNotFittedError("Ridge", "SaveJSON")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return rg.SaveJSONWriter(file)
}

// SaveJSONWriter exports the model as a JSON model document to a Writer
func (rg *Ridge) SaveJSONWriter(w io.Writer) (err error) {
	defer moodErrors.Recover(&err, "Ridge.SaveJSONWriter")
	if !rg.State.IsFitted() {
		return moodErrors.NewNotFittedError("Ridge", "SaveJSONWriter")
	}

	params := model.LinearParams{
		Coefficients: rg.GetWeights(),
		Intercept:    rg.Intercept,
		NFeatures:    rg.NFeatures,
		Alpha:        rg.Alpha,
		FeatureNames: rg.FeatureNames,
	}

	return model.ExportDocument("Ridge", params, w)
}

// IsFitted returns whether the model has been fitted.
func (rg *Ridge) IsFitted() bool {
	return rg.State.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (rg *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":      rg.Alpha,
		"n_features": rg.NFeatures,
		"fitted":     rg.State.IsFitted(),
	}
}

// SetParams sets the model's hyperparameters.
func (rg *Ridge) SetParams(params map[string]interface{}) error {
	if alpha, ok := params["alpha"]; ok {
		v, ok := alpha.(float64)
		if !ok {
			return moodErrors.NewValueError("Ridge.SetParams", "alpha must be a float64")
		}
		if v < 0 {
			return moodErrors.NewValueError("Ridge.SetParams", "alpha must be non-negative")
		}
		rg.Alpha = v
	}
	return nil
}
