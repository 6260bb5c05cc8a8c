package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/core/model"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
)

// OneHotEncoder converts categorical string columns into 0/1 indicator
// columns. The diary feature builder uses it to encode weekday names; it
// works for any categorical input.
type OneHotEncoder struct {
	model.BaseEstimator

	// Categories holds the sorted category list per input feature.
	Categories [][]string

	// CategoryToIdx maps category to output offset per input feature.
	CategoryToIdx []map[string]int

	// NFeatures is the number of input features.
	NFeatures int

	// NOutputs is the number of output columns (total category count).
	NOutputs int
}

// NewOneHotEncoder creates a new OneHotEncoder.
//
// Returns:
//   - *OneHotEncoder: A new encoder instance ready for fitting
//
// Example:
//
//	encoder := preprocessing.NewOneHotEncoder()
//	err := encoder.Fit(data)
//	encoded, err := encoder.Transform(data)
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// Fit learns the category vocabulary from training data.
//
// Categories are collected per column and sorted so the output column
// order is deterministic.
//
// Parameters:
//   - data: training data as an n_samples × n_features string slice
//
// Returns:
//   - error: nil if successful, otherwise an error describing the failure
func (e *OneHotEncoder) Fit(data [][]string) (err error) {
	defer moodErrors.Recover(&err, "OneHotEncoder.Fit")
	if len(data) == 0 {
		return moodErrors.NewModelError("OneHotEncoder.Fit", "empty data", moodErrors.ErrEmptyData)
	}

	if len(data[0]) == 0 {
		return moodErrors.NewModelError("OneHotEncoder.Fit", "empty features", moodErrors.ErrEmptyData)
	}

	nSamples := len(data)
	nFeatures := len(data[0])

	// All rows must have the same number of columns.
	for i, row := range data {
		if len(row) != nFeatures {
			return moodErrors.NewDimensionError("OneHotEncoder.Fit", nFeatures, len(row), i)
		}
	}

	e.NFeatures = nFeatures
	e.Categories = make([][]string, nFeatures)
	e.CategoryToIdx = make([]map[string]int, nFeatures)

	for j := 0; j < nFeatures; j++ {
		categorySet := make(map[string]bool)

		for i := 0; i < nSamples; i++ {
			categorySet[data[i][j]] = true
		}

		categories := make([]string, 0, len(categorySet))
		for category := range categorySet {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		e.Categories[j] = categories

		categoryToIdx := make(map[string]int)
		for idx, category := range categories {
			categoryToIdx[category] = idx
		}
		e.CategoryToIdx[j] = categoryToIdx
	}

	e.NOutputs = 0
	for _, categories := range e.Categories {
		e.NOutputs += len(categories)
	}

	e.SetFitted()
	return nil
}

// Transform one-hot encodes data using the learned vocabulary.
//
// Categories never seen during Fit encode as all zeros for their feature
// block.
//
// Parameters:
//   - data: the data to encode
//
// Returns:
//   - mat.Matrix: the one-hot encoded matrix (n_samples × NOutputs)
//   - error: nil if successful, otherwise an error describing the failure
func (e *OneHotEncoder) Transform(data [][]string) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "OneHotEncoder.Transform")
	if !e.IsFitted() {
		return nil, moodErrors.NewNotFittedError("OneHotEncoder", "Transform")
	}

	if len(data) == 0 {
		return mat.NewDense(0, e.NOutputs, nil), nil
	}

	nSamples := len(data)
	nFeatures := len(data[0])

	if nFeatures != e.NFeatures {
		return nil, moodErrors.NewDimensionError("OneHotEncoder.Transform", e.NFeatures, nFeatures, 1)
	}

	result := mat.NewDense(nSamples, e.NOutputs, nil)

	for i := 0; i < nSamples; i++ {
		outputIdx := 0

		for j := 0; j < nFeatures; j++ {
			category := data[i][j]

			if idx, exists := e.CategoryToIdx[j][category]; exists {
				result.Set(i, outputIdx+idx, 1.0)
			}
			// Unknown categories stay all-zero.

			outputIdx += len(e.Categories[j])
		}
	}

	return result, nil
}

// FitTransform learns the vocabulary and encodes the same data in one
// step.
//
// Parameters:
//   - data: the data to fit on and encode
//
// Returns:
//   - mat.Matrix: the one-hot encoded matrix
//   - error: nil if successful, otherwise an error describing the failure
func (e *OneHotEncoder) FitTransform(data [][]string) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "OneHotEncoder.FitTransform")
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// GetFeatureNamesOut returns the names of the encoded output columns.
//
// Parameters:
//   - inputFeatures: input feature names (nil uses "x0", "x1", ...)
//
// Returns:
//   - []string: output column names, nil when not fitted
//
// Example:
//   - input feature names ["weekday"] with categories Mon/Tue produce
//     ["weekday_Mon", "weekday_Tue"]
func (e *OneHotEncoder) GetFeatureNamesOut(inputFeatures []string) []string {
	if !e.IsFitted() {
		return nil
	}

	var outputFeatures []string

	for i, categories := range e.Categories {
		var inputFeatureName string
		if inputFeatures != nil && i < len(inputFeatures) {
			inputFeatureName = inputFeatures[i]
		} else {
			inputFeatureName = fmt.Sprintf("x%d", i)
		}

		for _, category := range categories {
			featureName := fmt.Sprintf("%s_%s", inputFeatureName, category)
			outputFeatures = append(outputFeatures, featureName)
		}
	}

	return outputFeatures
}
