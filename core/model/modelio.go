package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/quantself/moodlab/pkg/errors"
)

// FormatVersion is the JSON model-exchange format version written and
// accepted by this package.
const FormatVersion = "1.0"

// ModelSpec identifies the model stored in a JSON document.
type ModelSpec struct {
	// Name is the estimator type, e.g. "LinearRegression" or
	// "SymbolicRegressor".
	Name string `json:"name"`
	// FormatVersion is the exchange-format version, currently "1.0".
	FormatVersion string `json:"format_version"`
	// Library optionally records the producing library and version.
	Library string `json:"library,omitempty"`
}

// ModelDocument is the JSON envelope for exchanged models: a spec plus
// estimator-specific parameters kept raw until the caller knows the type.
type ModelDocument struct {
	Spec   ModelSpec       `json:"model_spec"`
	Params json.RawMessage `json:"params"`
}

// LinearParams are the learned parameters of a linear model (ordinary
// least squares or ridge).
type LinearParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	NFeatures    int       `json:"n_features"`
	// Alpha is the ridge penalty; zero for plain least squares.
	Alpha float64 `json:"alpha,omitempty"`
	// FeatureNames, when present, align with Coefficients.
	FeatureNames []string `json:"feature_names,omitempty"`
}

// EquationParams are the learned parameters of a symbolic-regression
// model: the selected equation in prefix form plus its provenance.
type EquationParams struct {
	// Expression is the equation in parseable prefix notation, e.g.
	// "(add (mul x0 0.42) (sin x3))".
	Expression string `json:"expression"`
	// Infix is the human-readable rendering, informational only.
	Infix string `json:"infix,omitempty"`
	// FeatureNames align with the variable indices in Expression.
	FeatureNames []string `json:"feature_names,omitempty"`
	Complexity   int      `json:"complexity"`
	TrainMSE     float64  `json:"train_mse"`
}

// LoadDocument reads a JSON model document from a file.
func LoadDocument(filename string) (*ModelDocument, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return LoadDocumentFromReader(file)
}

// LoadDocumentFromReader reads and validates a JSON model document.
func LoadDocumentFromReader(r io.Reader) (*ModelDocument, error) {
	var doc ModelDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	if doc.Spec.FormatVersion == "" {
		return nil, errors.NewValueError("LoadDocument", "format_version is required")
	}
	if doc.Spec.FormatVersion != FormatVersion {
		return nil, errors.NewValueError("LoadDocument",
			fmt.Sprintf("unsupported format version: %s", doc.Spec.FormatVersion))
	}
	if doc.Spec.Name == "" {
		return nil, errors.NewValueError("LoadDocument", "model name is required")
	}

	return &doc, nil
}

// LoadLinearParams extracts and validates linear-model parameters from a
// document whose spec names a linear model.
func LoadLinearParams(doc *ModelDocument) (*LinearParams, error) {
	if doc.Spec.Name != "LinearRegression" && doc.Spec.Name != "Ridge" {
		return nil, errors.NewValueError("LoadLinearParams",
			fmt.Sprintf("expected a linear model, got %s", doc.Spec.Name))
	}

	var params LinearParams
	if err := json.Unmarshal(doc.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}

	if len(params.Coefficients) == 0 {
		return nil, errors.NewValueError("LoadLinearParams",
			"coefficients cannot be empty")
	}
	if params.NFeatures != len(params.Coefficients) {
		return nil, errors.NewValueError("LoadLinearParams",
			fmt.Sprintf("n_features (%d) does not match coefficients length (%d)",
				params.NFeatures, len(params.Coefficients)))
	}

	return &params, nil
}

// LoadEquationParams extracts and validates symbolic-regression parameters
// from a document whose spec names a SymbolicRegressor.
func LoadEquationParams(doc *ModelDocument) (*EquationParams, error) {
	if doc.Spec.Name != "SymbolicRegressor" {
		return nil, errors.NewValueError("LoadEquationParams",
			fmt.Sprintf("expected SymbolicRegressor, got %s", doc.Spec.Name))
	}

	var params EquationParams
	if err := json.Unmarshal(doc.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}

	if params.Expression == "" {
		return nil, errors.NewValueError("LoadEquationParams",
			"expression cannot be empty")
	}
	if params.Complexity <= 0 {
		return nil, errors.NewValueError("LoadEquationParams",
			fmt.Sprintf("complexity must be positive, got %d", params.Complexity))
	}

	return &params, nil
}

// ExportDocument writes a JSON model document for the named model to w.
func ExportDocument(modelName string, params interface{}, w io.Writer) error {
	doc := ModelDocument{
		Spec: ModelSpec{
			Name:          modelName,
			FormatVersion: FormatVersion,
			Library:       "moodlab",
		},
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	doc.Params = paramsJSON

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	return nil
}
