package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/quantself/moodlab/pkg/errors"
)

// SaveModel serializes a fitted estimator to path using encoding/gob.
// The estimator's exported fields (including its StateManager) are
// captured; load it back into a fresh instance of the same concrete type
// with LoadModel.
//
// Example:
//
//	reg := linear.NewLinearRegression()
//	_ = reg.Fit(X, y)
//	err := model.SaveModel(reg, "mood.gob")
func SaveModel(m interface{}, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() { _ = file.Close() }()

	return SaveModelToWriter(m, file)
}

// SaveModelToWriter serializes the estimator to w using encoding/gob.
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if m == nil {
		return errors.NewValueError("SaveModel", "model cannot be nil")
	}
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModel restores an estimator previously written by SaveModel.
// m must be a pointer to the same concrete type that was saved.
func LoadModel(m interface{}, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()

	return LoadModelFromReader(m, file)
}

// LoadModelFromReader restores an estimator from r using encoding/gob.
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if m == nil {
		return errors.NewValueError("LoadModel", "model cannot be nil")
	}
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
