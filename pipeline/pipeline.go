// Package pipeline chains preprocessing transformers with a final
// estimator so a scaler, a projection and a model fit and predict as
// one unit. Intermediate steps must be transformers; the final step
// may be a supervised estimator or another transformer.
package pipeline

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/quantself/moodlab/core/model"
	moodErrors "github.com/quantself/moodlab/pkg/errors"
	"github.com/quantself/moodlab/pkg/log"
)

// Step is one named stage of a pipeline.
type Step struct {
	Name      string
	Component interface{}
}

// Pipeline applies its steps in order: each intermediate transformer
// is fit on the output of the previous one, and the final step sees
// fully transformed data.
type Pipeline struct {
	// State manager (composition instead of embedding) - Public for gob encoding
	State *model.StateManager

	steps  []Step
	logger log.Logger
}

// New creates a pipeline over the given steps.
func New(steps ...Step) *Pipeline {
	p := &Pipeline{
		State: model.NewStateManager(),
		steps: steps,
	}

	p.logger = log.GetLoggerWithName("pipeline").With(
		log.ModelNameKey, "Pipeline",
		log.ComponentKey, "pipeline",
	)

	return p
}

// Make builds a pipeline with generated step names (step1, step2, ...).
func Make(components ...interface{}) *Pipeline {
	steps := make([]Step, len(components))
	for i, c := range components {
		steps[i] = Step{Name: fmt.Sprintf("step%d", i+1), Component: c}
	}
	return New(steps...)
}

// Fit trains the pipeline: every intermediate transformer is fit and
// applied in order, then the final step is fit on the transformed data.
func (p *Pipeline) Fit(X, y mat.Matrix) (err error) {
	defer moodErrors.Recover(&err, "Pipeline.Fit")

	startTime := time.Now()

	if err := p.validateSteps(); err != nil {
		return err
	}

	Xt := X
	for _, step := range p.steps[:len(p.steps)-1] {
		transformer, ok := step.Component.(model.Transformer)
		if !ok {
			return moodErrors.NewValidationError("pipeline step",
				"intermediate steps must be transformers", step.Name)
		}
		if err := transformer.Fit(Xt); err != nil {
			return moodErrors.Wrapf(err, "failed to fit step %q", step.Name)
		}
		if Xt, err = transformer.Transform(Xt); err != nil {
			return moodErrors.Wrapf(err, "failed to transform at step %q", step.Name)
		}
	}

	final := p.steps[len(p.steps)-1]
	switch c := final.Component.(type) {
	case model.Fitter:
		if err := c.Fit(Xt, y); err != nil {
			return moodErrors.Wrapf(err, "failed to fit final step %q", final.Name)
		}
	case model.Transformer:
		if err := c.Fit(Xt); err != nil {
			return moodErrors.Wrapf(err, "failed to fit final step %q", final.Name)
		}
	default:
		return moodErrors.NewValidationError("pipeline final step",
			"final step must be an estimator or a transformer", final.Name)
	}

	p.State.SetFitted()

	if p.logger != nil {
		p.logger.Debug("Pipeline fitted",
			"steps", len(p.steps),
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
		)
	}

	return nil
}

// Predict transforms X through the intermediate steps and predicts
// with the final estimator.
func (p *Pipeline) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer moodErrors.Recover(&err, "Pipeline.Predict")

	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("Pipeline", "Predict")
	}

	Xt, err := p.applyIntermediate(X)
	if err != nil {
		return nil, err
	}

	final := p.steps[len(p.steps)-1]
	predictor, ok := final.Component.(model.Predictor)
	if !ok {
		return nil, moodErrors.NewValidationError("pipeline final step",
			"final step cannot predict", final.Name)
	}
	return predictor.Predict(Xt)
}

// Transform maps X through every step. Valid only when all steps,
// the final one included, are transformers.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("Pipeline", "Transform")
	}

	Xt := X
	var err error
	for _, step := range p.steps {
		transformer, ok := step.Component.(model.Transformer)
		if !ok {
			return nil, moodErrors.NewValidationError("pipeline step",
				"all steps must be transformers for Transform", step.Name)
		}
		if Xt, err = transformer.Transform(Xt); err != nil {
			return nil, moodErrors.Wrapf(err, "failed to transform at step %q", step.Name)
		}
	}
	return Xt, nil
}

// FitTransform fits every step and returns the fully transformed data.
// All steps must be transformers; y is accepted for signature symmetry
// with Fit and ignored.
func (p *Pipeline) FitTransform(X, _ mat.Matrix) (mat.Matrix, error) {
	if err := p.validateSteps(); err != nil {
		return nil, err
	}

	Xt := X
	var err error
	for _, step := range p.steps {
		transformer, ok := step.Component.(model.Transformer)
		if !ok {
			return nil, moodErrors.NewValidationError("pipeline step",
				"all steps must be transformers for FitTransform", step.Name)
		}
		if err = transformer.Fit(Xt); err != nil {
			return nil, moodErrors.Wrapf(err, "failed to fit step %q", step.Name)
		}
		if Xt, err = transformer.Transform(Xt); err != nil {
			return nil, moodErrors.Wrapf(err, "failed to transform at step %q", step.Name)
		}
	}

	p.State.SetFitted()
	return Xt, nil
}

// InverseTransform maps transformed data back through the steps in
// reverse order. All steps must support inversion.
func (p *Pipeline) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !p.State.IsFitted() {
		return nil, moodErrors.NewNotFittedError("Pipeline", "InverseTransform")
	}

	Xt := X
	var err error
	for i := len(p.steps) - 1; i >= 0; i-- {
		step := p.steps[i]
		inv, ok := step.Component.(model.InverseTransformer)
		if !ok {
			return nil, moodErrors.NewValidationError("pipeline step",
				"all steps must support InverseTransform", step.Name)
		}
		if Xt, err = inv.InverseTransform(Xt); err != nil {
			return nil, moodErrors.Wrapf(err, "failed to inverse transform at step %q", step.Name)
		}
	}
	return Xt, nil
}

// Score transforms X through the intermediate steps and delegates to
// the final estimator's Score.
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	if !p.State.IsFitted() {
		return 0, moodErrors.NewNotFittedError("Pipeline", "Score")
	}

	Xt, err := p.applyIntermediate(X)
	if err != nil {
		return 0, err
	}

	final := p.steps[len(p.steps)-1]
	scorer, ok := final.Component.(interface {
		Score(mat.Matrix, mat.Matrix) (float64, error)
	})
	if !ok {
		return 0, moodErrors.NewValidationError("pipeline final step",
			"final step cannot score", final.Name)
	}
	return scorer.Score(Xt, y)
}

// IsFitted reports whether the pipeline has been fitted.
func (p *Pipeline) IsFitted() bool {
	return p.State.IsFitted()
}

// Steps returns a copy of the step list.
func (p *Pipeline) Steps() []Step {
	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// NamedSteps returns the step components keyed by name.
func (p *Pipeline) NamedSteps() map[string]interface{} {
	named := make(map[string]interface{}, len(p.steps))
	for _, step := range p.steps {
		named[step.Name] = step.Component
	}
	return named
}

// GetParams returns the pipeline's step names plus every step's own
// parameters prefixed with its name.
func (p *Pipeline) GetParams() map[string]interface{} {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name
	}

	params := map[string]interface{}{"steps": names}
	for _, step := range p.steps {
		getter, ok := step.Component.(interface {
			GetParams() map[string]interface{}
		})
		if !ok {
			continue
		}
		for key, value := range getter.GetParams() {
			params[step.Name+"__"+key] = value
		}
	}
	return params
}

// applyIntermediate runs X through every step but the last.
func (p *Pipeline) applyIntermediate(X mat.Matrix) (mat.Matrix, error) {
	Xt := X
	var err error
	for _, step := range p.steps[:len(p.steps)-1] {
		transformer, ok := step.Component.(model.Transformer)
		if !ok {
			return nil, moodErrors.NewValidationError("pipeline step",
				"intermediate steps must be transformers", step.Name)
		}
		if Xt, err = transformer.Transform(Xt); err != nil {
			return nil, moodErrors.Wrapf(err, "failed to transform at step %q", step.Name)
		}
	}
	return Xt, nil
}

// validateSteps rejects empty pipelines, unnamed steps and duplicate
// step names.
func (p *Pipeline) validateSteps() error {
	if len(p.steps) == 0 {
		return moodErrors.NewValueError("Pipeline.Fit", "pipeline has no steps")
	}

	seen := make(map[string]bool, len(p.steps))
	for _, step := range p.steps {
		if step.Name == "" {
			return moodErrors.NewValidationError("pipeline step", "step name must not be empty", step.Name)
		}
		if seen[step.Name] {
			return moodErrors.NewValidationError("pipeline step", "duplicate step name", step.Name)
		}
		seen[step.Name] = true
	}
	return nil
}
