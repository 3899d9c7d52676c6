// Package predictor defines the contract between the job workers and the
// model that scores their input.
package predictor

import (
	"context"
	"sort"
	"time"
)

// Input is the payload a client submits: one feature vector per row.
type Input struct {
	Data [][]float64 `json:"data"`
}

// Validate checks the shape of the input, not its values.
func (in Input) Validate() error {
	if len(in.Data) == 0 {
		return predictorErrors.New(ErrInvalidInput).WithDetail("reason", "data must contain at least one row")
	}
	for i, row := range in.Data {
		if len(row) == 0 {
			return predictorErrors.New(ErrInvalidInput).
				WithDetail("reason", "rows must not be empty").
				WithDetail("row", i)
		}
	}
	return nil
}

// Prediction is the outcome for one input row.
type Prediction struct {
	Prediction    int       `json:"prediction"`
	Label         string    `json:"label"`
	Probabilities []float64 `json:"probabilities"`
}

// Metadata describes the model behind a Predictor.
type Metadata struct {
	Name         string   `json:"model_name"`
	Type         string   `json:"model_type"`
	Features     int      `json:"features"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Classes      []string `json:"classes"`
}

// Predictor scores inputs. Implementations enforce the timeout passed to
// Predict themselves and must be safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, in Input, timeout time.Duration) ([]Prediction, error)
	Metadata() Metadata
	Close() error
}

// UnknownLabel is used for class indices without a configured name.
const UnknownLabel = "unknown"

// Normalize builds a Prediction from a winning class and per-class
// probabilities keyed by class index. Probabilities are ordered by ascending
// class index regardless of map iteration order.
func Normalize(class int, probs map[int]float64, labels []string) Prediction {
	idx := make([]int, 0, len(probs))
	for k := range probs {
		idx = append(idx, k)
	}
	sort.Ints(idx)

	ordered := make([]float64, len(idx))
	for i, k := range idx {
		ordered[i] = probs[k]
	}

	return Prediction{
		Prediction:    class,
		Label:         Label(class, labels),
		Probabilities: ordered,
	}
}

// Label returns the name of class, or UnknownLabel.
func Label(class int, labels []string) string {
	if class < 0 || class >= len(labels) {
		return UnknownLabel
	}
	return labels[class]
}
