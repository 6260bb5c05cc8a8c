// Package preprocessing provides the data preparation steps used ahead of
// moodlab model fitting.
//
// It implements transformers in the familiar estimator style:
//
//   - StandardScaler: standardizes features by removing the mean and
//     scaling to unit variance (the wellbeing composite standardizes the
//     mood items with it before projection)
//   - MinMaxScaler: scales each feature to a configurable range
//   - OneHotEncoder: encodes categorical columns (weekday names in the
//     diary pipeline) as one-hot numeric arrays
//
// All components follow the Fit / Transform / FitTransform pattern and
// embed BaseEstimator for fitted-state management and serialization.
//
// Example usage:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(trainingData)
//	if err != nil {
//		log.Fatal(err)
//	}
//	scaledData, err := scaler.Transform(testData)
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/core/model"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

// StandardScaler standardizes features to zero mean and unit variance.
type StandardScaler struct {
	model.BaseEstimator

	// Mean holds the per-feature mean learned at fit time.
	Mean []float64

	// Scale holds the per-feature standard deviation learned at fit time.
	Scale []float64

	// NFeatures is the number of features seen at fit time.
	NFeatures int

	// WithMean controls whether the mean is removed (default: true).
	WithMean bool

	// WithStd controls whether features are divided by their standard
	// deviation (default: true).
	WithStd bool
}

// NewStandardScaler creates a new StandardScaler for feature standardization.
//
// StandardScaler transforms features by removing the mean and scaling to unit
// variance. This is a common preprocessing step that ensures all features
// contribute equally to downstream models and improves numerical stability.
//
// Parameters:
//   - withMean: whether to center the data at zero by removing the mean (default: true)
//   - withStd: whether to scale the data to unit variance by dividing by standard deviation (default: true)
//
// Returns:
//   - *StandardScaler: A new StandardScaler instance ready for fitting
//
// Example:
//
//	// Standard z-score normalization (mean=0, std=1)
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(XTrain)
//	XScaled, err := scaler.Transform(XTest)
//
//	// Scale only (keep original mean)
//	scaler := preprocessing.NewStandardScaler(false, true)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with both centering and
// scaling enabled.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the statistics (mean and scale) from the training data.
//
// The feature-wise mean and standard deviation computed here drive all
// later transformations. The scaler must be fitted before calling
// Transform or InverseTransform.
//
// Parameters:
//   - X: Training data matrix of shape (n_samples, n_features)
//
// Returns:
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrEmptyData: if X is empty
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(trainingData)
//	if err != nil {
//	    log.Fatal(err)
//	}
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer moodErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return moodErrors.NewModelError("StandardScaler.Fit", "empty data", moodErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	} else {
		for j := 0; j < c; j++ {
			s.Mean[j] = 0.0
		}
	}

	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			variance := sumSquares / float64(r)
			s.Scale[j] = math.Sqrt(variance)

			// Constant features get scale 1 to avoid division by zero.
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform applies standardization to the input data using fitted statistics.
//
// The transformation formula is: X_scaled = (X - mean) / scale.
//
// Parameters:
//   - X: Input data matrix of shape (n_samples, n_features)
//
// Returns:
//   - mat.Matrix: Standardized data matrix with same shape as input
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
//   - ErrDimensionMismatch: if X doesn't match the number of features from training
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return nil, moodErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, moodErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			value := X.At(i, j)
			standardized := (value - s.Mean[j]) / s.Scale[j]
			result.Set(i, j, standardized)
		}
	}

	return result, nil
}

// FitTransform fits the scaler and transforms the training data in one step.
//
// Equivalent to calling Fit(X) followed by Transform(X).
//
// Parameters:
//   - X: Training data matrix of shape (n_samples, n_features)
//
// Returns:
//   - mat.Matrix: Standardized training data matrix
//   - error: nil if successful, otherwise an error from either fitting or transformation
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	scaledTraining, err := scaler.FitTransform(trainingData)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Now scaler is fitted and can transform new data
//	scaledTest, err := scaler.Transform(testData)
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform reverses the standardization transformation.
//
// The inverse transformation formula is: X_orig = X_scaled * scale + mean.
//
// Parameters:
//   - X: Standardized data matrix of shape (n_samples, n_features)
//
// Returns:
//   - mat.Matrix: Data matrix in original scale
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
//   - ErrDimensionMismatch: if X doesn't match the number of features from training
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.IsFitted() {
		return nil, moodErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, moodErrors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			value := X.At(i, j)
			original := value*s.Scale[j] + s.Mean[j]
			result.Set(i, j, original)
		}
	}

	return result, nil
}

// GetParams returns the scaler's parameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String returns a readable description of the scaler.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler scales each feature to a configured range, [0, 1] by
// default.
type MinMaxScaler struct {
	model.BaseEstimator

	// Min holds the per-feature additive offset of the transformation.
	Min []float64

	// Max holds the per-feature upper offset, kept for introspection.
	Max []float64

	// Scale holds the per-feature data range (max - min).
	Scale []float64

	// DataMin holds the per-feature minimum seen at fit time.
	DataMin []float64

	// DataMax holds the per-feature maximum seen at fit time.
	DataMax []float64

	// NFeatures is the number of features seen at fit time.
	NFeatures int

	// FeatureRange is the target range [min, max] after scaling.
	FeatureRange [2]float64
}

// NewMinMaxScaler creates a new MinMaxScaler for feature scaling.
//
// MinMaxScaler transforms features by scaling each feature to a given range.
// The transformation is given by: X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
//
// Parameters:
//   - featureRange: Target range for scaling [min, max] (typically [0, 1] or [-1, 1])
//
// Returns:
//   - *MinMaxScaler: A new MinMaxScaler instance ready for fitting
//
// Example:
//
//	// Scale to [0, 1] range
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	err := scaler.Fit(trainingData)
//	scaledData, err := scaler.Transform(testData)
//
//	// Scale to [-1, 1] range
//	scaler := preprocessing.NewMinMaxScaler([2]float64{-1.0, 1.0})
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault creates a MinMaxScaler targeting the [0, 1] range.
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit computes the minimum and maximum values for each feature from training data.
//
// The scaler must be fitted before calling Transform or InverseTransform.
//
// Parameters:
//   - X: Training data matrix of shape (n_samples, n_features)
//
// Returns:
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrEmptyData: if X is empty
func (m *MinMaxScaler) Fit(X mat.Matrix) (err error) {
	defer moodErrors.Recover(&err, "MinMaxScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return moodErrors.NewModelError("MinMaxScaler.Fit", "empty data", moodErrors.ErrEmptyData)
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Min = make([]float64, c)
	m.Max = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		min := X.At(0, j)
		max := X.At(0, j)

		for i := 1; i < r; i++ {
			val := X.At(i, j)
			if val < min {
				min = val
			}
			if val > max {
				max = val
			}
		}

		m.DataMin[j] = min
		m.DataMax[j] = max

		// Constant features get scale 1 to avoid division by zero.
		dataRange := max - min
		if math.Abs(dataRange) < 1e-8 {
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}

		featureRange := m.FeatureRange[1] - m.FeatureRange[0]
		m.Min[j] = m.FeatureRange[0] - min*featureRange/m.Scale[j]
		m.Max[j] = m.FeatureRange[1] - max*featureRange/m.Scale[j]
	}

	m.SetFitted()
	return nil
}

// Transform scales input data to the fitted feature range.
//
// Parameters:
//   - X: Input data matrix of shape (n_samples, n_features)
//
// Returns:
//   - mat.Matrix: Scaled data matrix with values in the target range
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
//   - ErrDimensionMismatch: if X doesn't match the number of features from training
func (m *MinMaxScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "MinMaxScaler.Transform")
	if !m.IsFitted() {
		return nil, moodErrors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, moodErrors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)

	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			val := X.At(i, j)
			// X_scaled = X_std * (max - min) + min
			// where X_std = (X - X.min) / (X.max - X.min)
			scaled := (val-m.DataMin[j])/m.Scale[j]*featureRange + m.FeatureRange[0]
			result.Set(i, j, scaled)
		}
	}

	return result, nil
}

// FitTransform fits the scaler and transforms the training data in one step.
//
// Equivalent to calling Fit(X) followed by Transform(X).
//
// Parameters:
//   - X: Training data matrix of shape (n_samples, n_features)
//
// Returns:
//   - mat.Matrix: Scaled training data matrix in the target range
//   - error: nil if successful, otherwise an error from either fitting or transformation
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "MinMaxScaler.FitTransform")
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform reverses the min-max scaling transformation.
//
// Useful for interpreting results or recovering original data values.
//
// Parameters:
//   - X: Scaled data matrix of shape (n_samples, n_features)
//
// Returns:
//   - mat.Matrix: Data matrix in original scale and range
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
//   - ErrDimensionMismatch: if X doesn't match the number of features from training
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "MinMaxScaler.InverseTransform")
	if !m.IsFitted() {
		return nil, moodErrors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, moodErrors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)

	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			val := X.At(i, j)
			// X_orig = ((X_scaled - min) / (max - min)) * (data_max - data_min) + data_min
			original := ((val-m.FeatureRange[0])/featureRange)*m.Scale[j] + m.DataMin[j]
			result.Set(i, j, original)
		}
	}

	return result, nil
}

// GetParams returns the scaler's parameters.
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// String returns a readable description of the scaler.
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}
