package softmax

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abraxas-365/inferq/pkg/fsx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
)

// Spec is the serialized form of a multinomial linear classifier.
// Weights has one row per class and one column per feature.
type Spec struct {
	Name       string      `json:"name"`
	Features   []string    `json:"features"`
	Labels     []string    `json:"labels"`
	Weights    [][]float64 `json:"weights"`
	Intercepts []float64   `json:"intercepts"`
}

func (s Spec) Validate() error {
	invalid := func(reason string) error {
		return predictor.Errors().New(predictor.ErrInvalidModel).
			WithDetail("model", s.Name).
			WithDetail("reason", reason)
	}

	if len(s.Weights) == 0 {
		return invalid("no classes")
	}
	if len(s.Intercepts) != len(s.Weights) {
		return invalid(fmt.Sprintf("%d intercepts for %d classes", len(s.Intercepts), len(s.Weights)))
	}
	width := len(s.Weights[0])
	if width == 0 {
		return invalid("no features")
	}
	for i, row := range s.Weights {
		if len(row) != width {
			return invalid(fmt.Sprintf("class %d has %d weights, want %d", i, len(row), width))
		}
	}
	if len(s.Features) > 0 && len(s.Features) != width {
		return invalid(fmt.Sprintf("%d feature names for %d weights", len(s.Features), width))
	}
	return nil
}

// Iris is a classifier fitted on the iris data set.
func Iris() Spec {
	return Spec{
		Name:     "iris_softmax",
		Features: predictor.IrisFeatures,
		Labels:   predictor.IrisLabels,
		Weights: [][]float64{
			{-0.42, 0.97, -2.52, -1.08},
			{0.53, -0.32, -0.21, -0.94},
			{-0.11, -0.65, 2.73, 2.02},
		},
		Intercepts: []float64{9.85, 2.24, -12.09},
	}
}

// LoadSpec reads a JSON Spec from fs.
func LoadSpec(ctx context.Context, fs fsx.FileReader, path string) (Spec, error) {
	raw, err := fs.ReadFile(ctx, path)
	if err != nil {
		return Spec{}, predictor.Errors().NewWithCause(predictor.ErrModelLoad, err).WithDetail("path", path)
	}

	var s Spec
	if err := json.Unmarshal(raw, &s); err != nil {
		return Spec{}, predictor.Errors().NewWithCause(predictor.ErrModelLoad, err).WithDetail("path", path)
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}
