package model

import "gonum.org/v1/gonum/mat"

// Transformer is implemented by preprocessing steps that learn parameters
// from data and then map matrices to matrices (scalers, encoders, PCA).
// Fit takes only X; transformers are unsupervised.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer is implemented by transformers that can map
// transformed data back to the original space.
type InverseTransformer interface {
	Transformer
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// Fitter is implemented by supervised estimators.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor produces one prediction row per input row.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is the full supervised surface: fit on (X, y), then predict.
type Estimator interface {
	Fitter
	Predictor
}

// ModelWeights is the serializable description of an estimator's learned
// state used by the JSON model exchange and weight hashing.
type ModelWeights struct {
	ModelType       string                 `json:"model_type"`
	Version         string                 `json:"version"`
	IsFitted        bool                   `json:"is_fitted"`
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`
	Weights         map[string][]float64   `json:"weights,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}
