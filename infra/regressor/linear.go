package regressor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/bikeprice/core/encoder"
)

// LinearModel is an exported linear regression: intercept plus one
// coefficient per feature.
type LinearModel struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// LoadLinear reads a LinearModel from a JSON file.
func LoadLinear(path string) (*LinearModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read linear model: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode linear model %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("linear model %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the model matches the feature vector layout.
func (m *LinearModel) Validate() error {
	if len(m.Coefficients) != encoder.VectorLen {
		return fmt.Errorf("expected %d coefficients, got %d", encoder.VectorLen, len(m.Coefficients))
	}
	return checkFeatureNames(m.FeatureNames)
}

// Predict returns intercept + coefficients · features. It is reentrant.
func (m *LinearModel) Predict(_ context.Context, features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Coefficients), len(features))
	}
	return m.Intercept + floats.Dot(m.Coefficients, features), nil
}

// checkFeatureNames rejects models exported with a different column order.
// Models without names are trusted.
func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != encoder.VectorLen {
		return fmt.Errorf("expected %d feature names, got %d", encoder.VectorLen, len(names))
	}
	for i, n := range names {
		if n != encoder.FeatureNames[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, n, encoder.FeatureNames[i])
		}
	}
	return nil
}
