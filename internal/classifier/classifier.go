// Package classifier wraps the pre-trained leukemia risk model.
//
// The model is loaded once at startup and never mutated afterwards, so a
// single *Classifier can be shared by every request handler.
package classifier

import (
	"errors"
	"fmt"

	"github.com/Skufu/leukovision/internal/patient"
)

var ErrFeatureCount = errors.New("feature vector has wrong length")

// RiskClass is the raw class code produced by the model. Known codes are
// 0 through 3; anything else is passed through untouched for the tier
// mapper to handle.
type RiskClass int

// Model is anything that can turn a feature vector into a class code.
type Model interface {
	Predict(features []float64) (int, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(features []float64) (int, error)

func (f ModelFunc) Predict(features []float64) (int, error) {
	return f(features)
}

type Classifier struct {
	model Model
}

func New(model Model) *Classifier {
	return &Classifier{model: model}
}

// Classify runs the model on one encoded patient record.
func (c *Classifier) Classify(features []float64) (RiskClass, error) {
	if len(features) != patient.FeatureCount {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(features), patient.FeatureCount)
	}

	class, err := c.model.Predict(features)
	if err != nil {
		return 0, fmt.Errorf("model predict: %w", err)
	}

	return RiskClass(class), nil
}
